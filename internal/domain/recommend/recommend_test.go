package recommend

import (
	"testing"

	"github.com/okian/cfcoach/internal/domain/difficulty"
	"github.com/okian/cfcoach/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func problem(contest int, index string, rating int, topics ...string) model.CatalogProblem {
	return model.CatalogProblem{ContestID: contest, Index: index, Name: "P" + index, Rating: rating, Topics: topics}
}

func TestRecommend(t *testing.T) {
	Convey("Given a user rated 1400 weak at dp", t, func() {
		Convey("When the catalog has one problem in and one out of the window", func() {
			recs := Recommend([]string{"dp"}, 1400, []model.CatalogProblem{
				problem(1850, "C", 1400, "dp"),
				problem(1851, "D", 1800, "dp"),
			})

			Convey("Then only the in-window problem should be recommended", func() {
				So(len(recs), ShouldEqual, 1)
				So(recs[0].ContestID, ShouldEqual, 1850)
				So(recs[0].Index, ShouldEqual, "C")
				So(recs[0].Rating, ShouldEqual, 1400)
				So(recs[0].URL, ShouldEqual, "https://codeforces.com/problemset/problem/1850/C")
				So(recs[0].ID(), ShouldEqual, "1850C")
			})
		})

		Convey("When catalog entries are unrated or off-topic", func() {
			recs := Recommend([]string{"dp"}, 1400, []model.CatalogProblem{
				problem(1, "A", 0, "dp"),
				problem(2, "A", 1400, "greedy"),
				problem(3, "A", 1400),
			})

			Convey("Then nothing should be recommended", func() {
				So(recs, ShouldBeEmpty)
			})
		})

		Convey("When more than five problems qualify", func() {
			catalog := []model.CatalogProblem{
				problem(10, "A", 1600, "dp"),
				problem(11, "A", 1300, "dp", "math"),
				problem(12, "A", 1500, "dp"),
				problem(13, "A", 1400, "greedy", "dp"),
				problem(14, "A", 1200, "dp"),
				problem(15, "A", 1500, "dp"),
				problem(16, "A", 1450, "dp"),
			}
			recs := Recommend([]string{"dp"}, 1400, catalog)

			Convey("Then five should be returned ordered by distance with stable ties", func() {
				So(len(recs), ShouldEqual, DefaultLimit)
				ids := make([]string, len(recs))
				for i, r := range recs {
					ids[i] = r.ID()
				}
				So(ids, ShouldResemble, []string{"13A", "16A", "11A", "12A", "15A"})
			})

			Convey("Then topics should be joined", func() {
				So(recs[0].Topics, ShouldEqual, "greedy, dp")
			})
		})

		Convey("When there are no weak topics", func() {
			recs := Recommend(nil, 1400, []model.CatalogProblem{problem(1, "A", 1400, "dp")})

			Convey("Then the result should be empty but not nil", func() {
				So(recs, ShouldNotBeNil)
				So(recs, ShouldBeEmpty)
			})
		})
	})
}

func TestSelectorOptions(t *testing.T) {
	Convey("Given a customized selector", t, func() {
		s := NewSelector(
			WithLimit(2),
			WithWindow(difficulty.Window(50)),
			WithBaseURL("https://mirror.example/problem/"),
		)
		catalog := []model.CatalogProblem{
			problem(1, "A", 1500, "dp"),
			problem(2, "B", 1420, "dp"),
			problem(3, "C", 1400, "dp"),
			problem(4, "D", 1380, "dp"),
		}
		recs := s.Recommend([]string{"dp"}, 1400, catalog)

		Convey("Then the limit and window should apply", func() {
			So(len(recs), ShouldEqual, 2)
			So(recs[0].ID(), ShouldEqual, "3C")
			So(recs[1].ID(), ShouldEqual, "2B")
		})

		Convey("Then the base URL should be used without a double slash", func() {
			So(recs[0].URL, ShouldEqual, "https://mirror.example/problem/3/C")
		})
	})

	Convey("Given invalid option values", t, func() {
		s := NewSelector(WithLimit(0), WithWindow(-1), WithBaseURL(""))

		Convey("Then defaults should be kept", func() {
			So(s.Limit(), ShouldEqual, DefaultLimit)
			So(s.Window(), ShouldEqual, difficulty.DefaultWindow)
			So(s.URL(1, "A"), ShouldEqual, DefaultBaseURL+"/1/A")
		})
	})
}
