package app

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"cheekyos/internal/devtools"
	"cheekyos/internal/state"
)

func (a *App) setDevState(name string) {
	a.devMu.Lock()
	a.devState.State = name
	a.devState.Error = ""
	a.devState.RenderSeq++
	a.devMu.Unlock()
	if a.cfg.Dev {
		_ = a.demo.SetState(context.Background(), "", name, true)
	}
}

func (a *App) setDevError(err error) {
	a.devMu.Lock()
	a.devState.State = "error"
	a.devState.Error = err.Error()
	a.devState.Pending = false
	a.devMu.Unlock()
	a.logger.Error("dev.scenario.error", map[string]any{"error": err.Error()})
}

// queueScenario schedules a scenario for the next frame. Only the UI
// goroutine touches the session, so HTTP requests never apply one directly.
func (a *App) queueScenario(name string) {
	a.devMu.Lock()
	a.pendingScenario = name
	a.devState.Demo = name
	a.devState.Pending = true
	a.devMu.Unlock()
}

func (a *App) applyPendingScenario() {
	a.devMu.Lock()
	name := a.pendingScenario
	a.pendingScenario = ""
	a.devMu.Unlock()
	if name == "" {
		return
	}
	sc, ok := a.demo.Resolve(name)
	if !ok {
		a.setDevError(errors.New("unknown scenario " + name))
		return
	}

	a.endSession(state.OutcomeQuit)
	a.startSession()
	if err := a.enterScenario(sc); err != nil {
		a.setDevError(err)
		return
	}
	a.devMu.Lock()
	a.devState.Pending = false
	a.devMu.Unlock()
	a.logger.Info("dev.scenario", map[string]any{"scenario": sc.Name, "session_id": a.sessionID})
	a.setDevState(sc.Name)
}

func (a *App) enterScenario(sc devtools.Scenario) error {
	switch {
	case sc.Stage > 0:
		return a.sess.Jump(sc.Stage, sc.History, sc.Meme)
	case sc.Skip:
		a.sess.Skip()
	}
	return nil
}

func (a *App) startDevHTTP() error {
	ln, err := net.Listen("tcp", a.cfg.DevHTTP)
	if err != nil {
		return err
	}
	a.devServer = &http.Server{
		Handler:           a.devHandler(),
		ReadHeaderTimeout: 2 * time.Second,
	}
	a.logger.Info("dev.http", map[string]any{"addr": ln.Addr().String()})
	go func() {
		if err := a.devServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("dev.http.error", map[string]any{"error": err.Error()})
		}
	}()
	return nil
}

func (a *App) devHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		a.devMu.Lock()
		payload := map[string]any{
			"state":      a.devState.State,
			"demo":       a.devState.Demo,
			"render_seq": a.devState.RenderSeq,
			"pending":    a.devState.Pending,
			"error":      a.devState.Error,
			"snapshot":   a.devState.Snapshot,
		}
		a.devMu.Unlock()
		writeJSON(w, http.StatusOK, payload)
	})
	mux.HandleFunc("POST /__dev/demo", func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(r.URL.Query().Get("scenario"))
		if name == "" {
			var body struct {
				Demo string `json:"demo"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "expected ?scenario= or {\"demo\": ...}"})
				return
			}
			name = strings.TrimSpace(body.Demo)
		}
		if _, ok := a.demo.Resolve(name); !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown scenario", "known": a.demo.Names()})
			return
		}
		a.queueScenario(name)
		writeJSON(w, http.StatusAccepted, map[string]any{"queued": name})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
