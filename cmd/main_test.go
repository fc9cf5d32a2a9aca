package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/cfcoach/internal/adapters/notify"
	"github.com/okian/cfcoach/internal/adapters/repository"
	"github.com/okian/cfcoach/internal/config"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// fakeCodeforces serves the handful of API methods a run needs.
func fakeCodeforces() *httptest.Server {
	bodies := map[string]string{
		"/api/user.status": `{"status":"OK","result":[
 {"id":2,"creationTimeSeconds":1700000200,"problem":{"contestId":1851,"index":"D","name":"Sums","rating":1500,"tags":["dp"]},"verdict":"WRONG_ANSWER"},
 {"id":1,"creationTimeSeconds":1700000100,"problem":{"contestId":1850,"index":"C","name":"Word","rating":800,"tags":["strings"]},"verdict":"OK"}
]}`,
		"/api/user.info":           `{"status":"OK","result":[{"handle":"tourist","rating":1450}]}`,
		"/api/problemset.problems": `{"status":"OK","result":{"problems":[{"contestId":1900,"index":"B","name":"Knapsack","rating":1500,"tags":["dp"]}]}}`,
	}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func testConfig(dir, baseURL string) *config.Config {
	cfg := config.New(context.Background())
	cfg.DataDir = dir
	cfg.HistoryDB = filepath.Join(dir, "history.db")
	cfg.CodeforcesBaseURL = baseURL
	cfg.CodeforcesRPS = 1000
	cfg.HTTPTimeout = 2 * time.Second
	cfg.Dashboard = false
	return cfg
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		cmd := newRootCmd()

		convey.Convey("Then every documented flag is registered", func() {
			for _, name := range []string{"config", "handle", "run-now", "test", "once", "ephemeral"} {
				convey.So(cmd.Flags().Lookup(name), convey.ShouldNotBeNil)
			}
		})

		convey.Convey("When flags are parsed", func() {
			err := cmd.ParseFlags([]string{"--handle", "petr", "--test", "--run-now"})

			convey.Convey("Then they are accepted", func() {
				convey.So(err, convey.ShouldBeNil)
				handle, _ := cmd.Flags().GetString("handle")
				test, _ := cmd.Flags().GetBool("test")
				convey.So(handle, convey.ShouldEqual, "petr")
				convey.So(test, convey.ShouldBeTrue)
			})
		})
	})
}

func TestScheduleSpec(t *testing.T) {
	convey.Convey("Given the default configuration", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then the daily spec follows daily_at", func() {
			spec, err := scheduleSpec(cfg, false)
			convey.So(err, convey.ShouldBeNil)
			convey.So(spec, convey.ShouldEqual, "0 8 * * *")
		})

		convey.Convey("Then test mode uses the interval", func() {
			spec, err := scheduleSpec(cfg, true)
			convey.So(err, convey.ShouldBeNil)
			convey.So(spec, convey.ShouldEqual, "@every 5m0s")
		})
	})
}

func TestBuildNotifier(t *testing.T) {
	convey.Convey("Given no notification settings", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then reports stay local", func() {
			n := buildNotifier(context.Background(), cfg, logger.Discard())
			_, ok := n.(notify.Nop)
			convey.So(ok, convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given a Slack webhook", t, func() {
		cfg := config.New(context.Background())
		cfg.SlackWebhookURL = "https://hooks.slack.com/services/T/B/X"
		cfg.PublicURL = "https://coach.example.com/"

		convey.Convey("Then a single-channel fan-out is built", func() {
			n := buildNotifier(context.Background(), cfg, logger.Discard())
			multi, ok := n.(*notify.Multi)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(multi.Len(), convey.ShouldEqual, 1)
		})

		convey.Convey("When a bot token and channel ID are also set", func() {
			cfg.SlackBotToken = "xoxb-test"
			cfg.SlackChannelID = "C0123"

			convey.Convey("Then Slack is still a single channel", func() {
				multi, ok := buildNotifier(context.Background(), cfg, logger.Discard()).(*notify.Multi)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(multi.Len(), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestRunOnce(t *testing.T) {
	convey.Convey("Given a reachable Codeforces API", t, func() {
		srv := fakeCodeforces()
		defer srv.Close()
		dir := t.TempDir()
		cfg := testConfig(dir, srv.URL+"/api")

		convey.Convey("When running once", func() {
			err := runOnce(context.Background(), cfg, logger.Discard())

			convey.Convey("Then the progress log is written", func() {
				convey.So(err, convey.ShouldBeNil)
				data, rerr := os.ReadFile(filepath.Join(dir, "progress_tourist.csv"))
				convey.So(rerr, convey.ShouldBeNil)
				convey.So(string(data), convey.ShouldContainSubstring, "1900B")
			})
		})
	})

	convey.Convey("Given persistence turned off", t, func() {
		srv := fakeCodeforces()
		defer srv.Close()
		dir := filepath.Join(t.TempDir(), "data")
		cfg := testConfig(dir, srv.URL+"/api")
		cfg.Persist = false

		convey.Convey("Then runs are kept in memory", func() {
			store, err := buildStore(context.Background(), cfg, logger.Discard())
			convey.So(err, convey.ShouldBeNil)
			_, ok := store.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
		})

		convey.Convey("When running once", func() {
			err := runOnce(context.Background(), cfg, logger.Discard())

			convey.Convey("Then nothing is written to disk", func() {
				convey.So(err, convey.ShouldBeNil)
				_, statErr := os.Stat(dir)
				convey.So(os.IsNotExist(statErr), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given an unreachable Codeforces API", t, func() {
		srv := fakeCodeforces()
		srv.Close()
		cfg := testConfig(t.TempDir(), srv.URL+"/api")

		convey.Convey("Then the run fails", func() {
			convey.So(runOnce(context.Background(), cfg, logger.Discard()), convey.ShouldNotBeNil)
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given the assembled HTTP routes", t, func() {
		srv := fakeCodeforces()
		defer srv.Close()
		cfg := testConfig(t.TempDir(), srv.URL+"/api")
		ctx := context.Background()

		svc, err := buildService(ctx, cfg, logger.Discard(), "")
		convey.So(err, convey.ShouldBeNil)
		defer func() { _ = svc.Close() }()
		mux := newMux(ctx, svc, cfg.DataDir)

		get := func(target string) int {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
			return w.Code
		}

		convey.Convey("Then API, docs and artifacts are served", func() {
			convey.So(get("/openapi.yaml"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/api-docs"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/healthz"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/report"), convey.ShouldEqual, http.StatusNotFound)
			convey.So(get("/history"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/rating/tier?rating=2000"), convey.ShouldEqual, http.StatusOK)
			convey.So(get("/"), convey.ShouldEqual, http.StatusFound)
			convey.So(get("/artifacts/history.db"), convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then a run cannot be queued before Start", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/run", http.NoBody))
			convey.So(w.Code, convey.ShouldEqual, http.StatusTooManyRequests)
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		convey.Convey("Then it runs until the context ends", func() {
			convey.So(func() {
				updateSystemMetrics()
				startSystemMetricsUpdater(ctx)
			}, convey.ShouldNotPanic)
		})
	})
}
