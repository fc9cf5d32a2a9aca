package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/cfcoach/internal/adapters/http/api"
	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	accept     bool
	triggered  []string
	latest     report.Report
	hasLatest  bool
	plot       string
	history    []report.Record
	historyErr error
	lastLimit  int
	contests   []model.Contest
	contestErr error
	contestArg [3]int
}

func (m *mockDependencies) Trigger(_ context.Context, source string) bool {
	if !m.accept {
		return false
	}
	m.triggered = append(m.triggered, source)
	return true
}

func (m *mockDependencies) LatestReport(context.Context) (report.Report, bool) {
	return m.latest, m.hasLatest
}

func (m *mockDependencies) LatestPlot(context.Context) (string, bool) {
	return m.plot, m.plot != ""
}

func (m *mockDependencies) History(_ context.Context, limit int) ([]report.Record, error) {
	m.lastLimit = limit
	return m.history, m.historyErr
}

func (m *mockDependencies) PastContests(_ context.Context, minRating, maxRating, limit int) ([]model.Contest, error) {
	m.contestArg = [3]int{minRating, maxRating, limit}
	return m.contests, m.contestErr
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any { return m.stats }

func sampleReport() report.Report {
	weak := []model.WeaknessEntry{
		{Topic: "dp", Accuracy: 25, Attempts: 4},
		{Topic: "graphs", Accuracy: 50, Attempts: 2},
	}
	recs := []model.Recommendation{
		{ContestID: 1850, Index: "C", Name: "Word on the <Paper>", Rating: 1500, Topics: "dp", URL: "https://codeforces.com/problemset/problem/1850/C"},
	}
	return report.Build("tourist", 1450, weak, recs, time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC))
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"runs": 3}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func decode(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}

func TestServer_Register(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		server := api.NewServer(&mockDependencies{}, &mockStatsProvider{})

		Convey("Then registering should panic", func() {
			So(func() { server.Register(context.Background(), nil) }, ShouldPanic)
		})
	})

	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{accept: true}
		mux := newMux(deps)

		Convey("When scraping /healthz", func() {
			w := do(mux, http.MethodGet, "/healthz")

			Convey("Then the Prometheus exposition is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/plain")
			})
		})

		Convey("When requesting /stats", func() {
			w := do(mux, http.MethodGet, "/stats")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the provider stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["runs"], ShouldEqual, 3.0)
			})
		})

		Convey("When posting to /stats", func() {
			w := do(mux, http.MethodPost, "/stats")

			Convey("Then the method is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
				So(w.Header().Get("Allow"), ShouldEqual, http.MethodGet)
			})
		})
	})
}

func TestReportEndpoints(t *testing.T) {
	Convey("Given no completed run", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When requesting /report", func() {
			w := do(mux, http.MethodGet, "/report")
			var body map[string]string
			So(decode(w, &body), ShouldBeNil)

			Convey("Then 404 is returned with the not_found code", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(body["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When requesting /dashboard", func() {
			w := do(mux, http.MethodGet, "/dashboard")

			Convey("Then a placeholder page is rendered", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "No run has completed yet.")
			})
		})
	})

	Convey("Given a completed run", t, func() {
		deps := &mockDependencies{latest: sampleReport(), hasLatest: true}
		mux := newMux(deps)

		Convey("When requesting /report", func() {
			w := do(mux, http.MethodGet, "/report")
			var body report.Report
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the report is returned as JSON", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body.Handle, ShouldEqual, "tourist")
				So(body.Tier, ShouldEqual, "Specialist")
				So(body.WeakTopics, ShouldResemble, []string{"dp", "graphs"})
				So(len(body.Recommendations), ShouldEqual, 1)
			})
		})

		Convey("When requesting /dashboard", func() {
			w := do(mux, http.MethodGet, "/dashboard")
			page := w.Body.String()

			Convey("Then the report is rendered with escaped names", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(page, ShouldContainSubstring, "Codeforces Daily Report for tourist")
				So(page, ShouldContainSubstring, "25.0%")
				So(page, ShouldContainSubstring, "Word on the &lt;Paper&gt;")
				So(page, ShouldContainSubstring, "Next Milestone: 150 points to Expert")
			})

			Convey("Then no image is linked while no plot exists", func() {
				So(page, ShouldNotContainSubstring, "<img")
				So(page, ShouldContainSubstring, "Not enough runs for a plot yet.")
			})
		})

		Convey("When the last run drew a plot", func() {
			deps.plot = "progress_tourist.png"
			page := do(mux, http.MethodGet, "/dashboard").Body.String()

			Convey("Then the image is linked from the artifacts directory", func() {
				So(page, ShouldContainSubstring, `<img src="/artifacts/progress_tourist.png"`)
				So(page, ShouldNotContainSubstring, "Not enough runs for a plot yet.")
			})
		})
	})

	Convey("Given a report at the top title", t, func() {
		rep := report.Build("tourist", 3000, nil, nil, sampleReport().GeneratedAt)
		mux := newMux(&mockDependencies{latest: rep, hasLatest: true})

		Convey("When requesting /dashboard", func() {
			page := do(mux, http.MethodGet, "/dashboard").Body.String()

			Convey("Then the milestone reads like the chat report", func() {
				So(page, ShouldContainSubstring, "Next Milestone: 0 points to Legendary Grandmaster")
				So(page, ShouldNotContainSubstring, "+-")
				So(page, ShouldContainSubstring, rep.Milestone())
			})
		})
	})

	Convey("Given a stored history", t, func() {
		deps := &mockDependencies{history: []report.Record{
			{Handle: "tourist", Date: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), WeakTopics: []string{"dp"}},
		}}
		mux := newMux(deps)

		Convey("When requesting /history without a limit", func() {
			w := do(mux, http.MethodGet, "/history")
			var body []report.Record
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the default limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 30)
				So(len(body), ShouldEqual, 1)
			})
		})

		Convey("When the limit is invalid", func() {
			So(do(mux, http.MethodGet, "/history?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/history?limit=0").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/history?limit=5000").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the store fails", func() {
			deps.historyErr = errors.New("disk gone")
			w := do(mux, http.MethodGet, "/history?limit=5")

			Convey("Then 500 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(w.Body.String(), ShouldContainSubstring, "disk gone")
			})
		})
	})

	Convey("Given an empty history", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("Then /history returns an empty array", func() {
			w := do(mux, http.MethodGet, "/history")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
		})
	})
}

func TestRunEndpoint(t *testing.T) {
	Convey("Given a service accepting runs", t, func() {
		deps := &mockDependencies{accept: true}
		mux := newMux(deps)

		Convey("When posting to /run", func() {
			w := do(mux, http.MethodPost, "/run")

			Convey("Then the run is accepted with the http source", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.triggered, ShouldResemble, []string{model.SourceHTTP})
			})
		})

		Convey("When using GET", func() {
			So(do(mux, http.MethodGet, "/run").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(deps.triggered, ShouldBeEmpty)
		})
	})

	Convey("Given a run already pending", t, func() {
		mux := newMux(&mockDependencies{accept: false})

		Convey("Then /run answers 429", func() {
			w := do(mux, http.MethodPost, "/run")
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(w.Body.String(), ShouldContainSubstring, "backpressure")
		})
	})
}

func TestRatingEndpoints(t *testing.T) {
	Convey("Given the rating endpoints", t, func() {
		mux := newMux(&mockDependencies{})

		Convey("When asking for a tier", func() {
			w := do(mux, http.MethodGet, "/rating/tier?rating=1900")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the label is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["tier"], ShouldEqual, "Candidate Master")
			})
		})

		Convey("When asking for the next milestone", func() {
			w := do(mux, http.MethodGet, "/rating/milestone?rating=1450")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the next title and missing points are returned", func() {
				So(body["next_tier"], ShouldEqual, "Expert")
				So(body["points"], ShouldEqual, 150.0)
			})
		})

		Convey("When estimating a rating change", func() {
			w := do(mux, http.MethodGet, "/rating/estimate?solved=4&expected=3&rating=1500")
			var body map[string]any
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the estimate and delta are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["estimated"], ShouldEqual, 1580.0)
				So(body["delta"], ShouldEqual, 80.0)
			})
		})

		Convey("When parameters are missing or malformed", func() {
			So(do(mux, http.MethodGet, "/rating/tier").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rating/tier?rating=high").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rating/estimate?solved=1&rating=1500").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rating/estimate?solved=-1&expected=1&rating=1500").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rating/estimate?solved=NaN&expected=1&rating=1500").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rating/estimate?solved=Inf&expected=Inf&rating=1500").Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rating/estimate?solved=1&expected=-Inf&rating=1500").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestContestsEndpoint(t *testing.T) {
	Convey("Given a contest finder", t, func() {
		deps := &mockDependencies{contests: []model.Contest{{ID: 1900, Name: "Round 1", Phase: "FINISHED", AverageRating: 1400}}}
		mux := newMux(deps)

		Convey("When called with defaults", func() {
			w := do(mux, http.MethodGet, "/contests")
			var body []model.Contest
			So(decode(w, &body), ShouldBeNil)

			Convey("Then the default range and scan limit are used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.contestArg, ShouldResemble, [3]int{1200, 1600, 20})
				So(body[0].ID, ShouldEqual, 1900)
			})
		})

		Convey("When the range is inverted", func() {
			So(do(mux, http.MethodGet, "/contests?min=1800&max=1200").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the upstream fails", func() {
			deps.contestErr = errors.New("codeforces down")
			w := do(mux, http.MethodGet, "/contests?min=1000&max=1300&limit=5")

			Convey("Then 502 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
				So(deps.contestArg, ShouldResemble, [3]int{1000, 1300, 5})
			})
		})
	})
}

func TestErrorKinds(t *testing.T) {
	Convey("Given a wrapped kind", t, func() {
		err := api.WrapKind(api.KindBadRequest, errors.New("missing rating"))

		Convey("Then the sentinel and the cause are both reachable", func() {
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "bad request: missing rating")
		})

		Convey("And Wrap keeps the chain", func() {
			wrapped := api.Wrap(err, "tier")
			So(errors.Is(wrapped, api.ErrBadRequest), ShouldBeTrue)
			So(api.Wrap(nil, "x"), ShouldBeNil)
		})
	})
}

func TestUnencodableResponse(t *testing.T) {
	Convey("Given stats that cannot be encoded as JSON", t, func() {
		server := api.NewServer(&mockDependencies{}, &mockStatsProvider{stats: map[string]any{"feed": make(chan int)}})
		mux := http.NewServeMux()
		server.Register(context.Background(), mux)

		Convey("When requesting /stats", func() {
			w := do(mux, http.MethodGet, "/stats")
			var body map[string]any
			err := decode(w, &body)

			Convey("Then an internal error is returned instead of an empty success", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(err, ShouldBeNil)
				So(body["code"], ShouldEqual, "internal_error")
			})
		})
	})
}
