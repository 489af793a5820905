package webchat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Register mounts the chat API on e.
func (s *Server) Register(e *echo.Echo) {
	g := e.Group("/channels/:channel")
	g.POST("/messages", s.handlePost)
	g.GET("/messages/:id", s.handleGet)
	g.POST("/messages/:id/threads", s.handleThread)
	g.GET("/events", s.handleEvents)
}

func (s *Server) handlePost(c echo.Context) error {
	var req PostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	m, err := s.Post(c.Request().Context(), c.Param("channel"), req)
	switch {
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "reply target not found")
	case err != nil:
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (s *Server) handleGet(c echo.Context) error {
	m, err := s.FetchMessage(c.Request().Context(), c.Param("channel"), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) handleThread(c echo.Context) error {
	var body struct {
		Private bool `json:"private"`
	}
	_ = c.Bind(&body)
	id, err := s.StartThread(c.Param("id"), body.Private)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	return c.JSON(http.StatusCreated, map[string]string{"thread_id": id})
}

func (s *Server) handleEvents(c echo.Context) error {
	events, unsub := s.Subscribe(c.Param("channel"))
	defer unsub()

	w := c.Response()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev.Message)
			if err != nil {
				s.log.Errorf("encode event: %v", err)
				continue
			}
			if err := writeEvent(w, string(ev.Type), string(data)); err != nil {
				return err
			}
			w.Flush()
		}
	}
}
