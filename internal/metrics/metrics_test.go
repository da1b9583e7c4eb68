package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	convey.Convey("Given metrics manager creation", t, func() {
		convey.Convey("When creating with default options", func() {
			m := NewManager()

			convey.Convey("Then it owns a fresh registry", func() {
				convey.So(m, convey.ShouldNotBeNil)
				convey.So(m.Registry(), convey.ShouldNotBeNil)
				convey.So(NewManager().Registry(), convey.ShouldNotEqual, m.Registry())
			})
		})

		convey.Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("cycle"),
				WithLatencyBuckets([]float64{1, 10, 100}),
				WithRegistry(registry),
			)
			m.RecordFrame(5 * time.Millisecond)

			convey.Convey("Then metrics use the custom names and registry", func() {
				convey.So(m.Registry(), convey.ShouldEqual, registry)
				families, err := registry.Gather()
				convey.So(err, convey.ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				convey.So(names, convey.ShouldContain, "test_cycle_frames_total")
			})
		})
	})
}

func TestManagerRecording(t *testing.T) {
	convey.Convey("Given a metrics manager", t, func() {
		m := NewManager()

		convey.Convey("When recording decisions and dispatches", func() {
			m.RecordCandidate("PauseVideo", "gesture")
			m.RecordDecision("admitted")
			m.RecordDecision("cooldown")
			m.RecordDecision("cooldown")
			m.RecordDispatch("pauseVideoControl", 12*time.Millisecond)
			m.RecordDispatchError("muteVideoControl")
			m.RecordNotReady()
			m.SetVolume(60)
			m.SetEnabled(true)

			body := scrape(m)

			convey.Convey("Then the exposition reflects them", func() {
				convey.So(body, convey.ShouldContainSubstring, `tubecontrol_engine_candidates_total{action="PauseVideo",modality="gesture"} 1`)
				convey.So(body, convey.ShouldContainSubstring, `tubecontrol_engine_decisions_total{reason="cooldown"} 2`)
				convey.So(body, convey.ShouldContainSubstring, `tubecontrol_engine_dispatches_total{operation="pauseVideoControl"} 1`)
				convey.So(body, convey.ShouldContainSubstring, `tubecontrol_engine_dispatch_errors_total{operation="muteVideoControl"} 1`)
				convey.So(body, convey.ShouldContainSubstring, "tubecontrol_engine_player_not_ready_total 1")
				convey.So(body, convey.ShouldContainSubstring, "tubecontrol_engine_player_volume 60")
				convey.So(body, convey.ShouldContainSubstring, "tubecontrol_engine_enabled 1")
				convey.So(body, convey.ShouldContainSubstring, "tubecontrol_engine_dispatch_latency_milliseconds_count 1")
			})
		})

		convey.Convey("When disabling", func() {
			m.SetEnabled(true)
			m.SetEnabled(false)

			convey.Convey("Then the gauge drops to zero", func() {
				convey.So(scrape(m), convey.ShouldContainSubstring, "tubecontrol_engine_enabled 0")
			})
		})
	})
}

func scrape(m *Manager) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}
