package codeforces

import (
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/cfcoach/internal/domain/model"
)

// envelope is the common API response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

type apiProblem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

type apiSubmission struct {
	ID                  int64       `json:"id"`
	ContestID           int         `json:"contestId"`
	CreationTimeSeconds int64       `json:"creationTimeSeconds"`
	Problem             *apiProblem `json:"problem"`
	Verdict             string      `json:"verdict"`
}

type apiUser struct {
	Handle string `json:"handle"`
	Rating *int   `json:"rating"`
	Rank   string `json:"rank"`
}

type apiProblemset struct {
	Problems []apiProblem `json:"problems"`
}

type apiStandings struct {
	Problems []apiProblem `json:"problems"`
}

type apiContest struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Phase string `json:"phase"`
}

func toSubmissions(in []apiSubmission) []model.Submission {
	out := make([]model.Submission, 0, len(in))
	for _, s := range in {
		if s.Problem == nil {
			continue
		}
		out = append(out, model.Submission{
			ProblemID: strconv.Itoa(s.Problem.ContestID) + s.Problem.Index,
			Topics:    s.Problem.Tags,
			Verdict:   model.ParseVerdict(s.Verdict),
			Rating:    s.Problem.Rating,
			CreatedAt: time.Unix(s.CreationTimeSeconds, 0).UTC(),
		})
	}
	return out
}

func toCatalog(in []apiProblem) []model.CatalogProblem {
	out := make([]model.CatalogProblem, 0, len(in))
	for _, p := range in {
		out = append(out, model.CatalogProblem{
			ContestID: p.ContestID,
			Index:     p.Index,
			Name:      p.Name,
			Rating:    p.Rating,
			Topics:    p.Tags,
		})
	}
	return out
}

func toContests(in []apiContest) []model.Contest {
	out := make([]model.Contest, 0, len(in))
	for _, c := range in {
		out = append(out, model.Contest{ID: c.ID, Name: c.Name, Phase: c.Phase})
	}
	return out
}
