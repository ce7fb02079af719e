package server

import (
	"crypto/subtle"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/service"
)

// maxUploadSize caps a single uploaded SGF or training data file.
const maxUploadSize = 64 << 20

func (s *Server) timed(op string) func(error) {
	if s.deps.Collector == nil {
		return func(error) {}
	}
	return s.deps.Collector.Time(op)
}

// getTask hands out a task. Workers announcing version 0 never get matches.
func (s *Server) getTask(c *gin.Context) {
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version < 0 {
		c.String(http.StatusBadRequest, "invalid client version\n")
		return
	}

	done := s.timed(metrics.OpGetTask)
	task, err := s.deps.Dispatcher.Dispatch(c.Request.Context(), c.ClientIP(), version != 0)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// formFile reads an uploaded file, or returns nil if it is missing.
func formFile(c *gin.Context, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, nil
	}
	if fh.Size > maxUploadSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", service.ErrValidation, name, maxUploadSize)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) submitMatch(c *gin.Context) {
	sgf, err := formFile(c, "sgf")
	if err != nil {
		fail(c, err)
		return
	}

	sub := service.MatchSubmission{
		ClientID:      c.ClientIP(),
		ClientVersion: c.PostForm("clientversion"),
		WinnerHash:    c.PostForm("winnerhash"),
		LoserHash:     c.PostForm("loserhash"),
		WinnerColor:   c.PostForm("winnercolor"),
		MovesCount:    c.PostForm("movescount"),
		Score:         c.PostForm("score"),
		OptionsHash:   c.PostForm("options_hash"),
		RandomSeed:    c.PostForm("random_seed"),
		SGF:           sgf,
	}

	done := s.timed(metrics.OpSubmitMatch)
	out, err := s.deps.Results.SubmitMatchResult(c.Request.Context(), sub)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, "Match data %s stored in database\n", out.SGFHash)
}

func (s *Server) submitGame(c *gin.Context) {
	sgf, err := formFile(c, "sgf")
	if err != nil {
		fail(c, err)
		return
	}
	data, err := formFile(c, "trainingdata")
	if err != nil {
		fail(c, err)
		return
	}

	sub := service.GameSubmission{
		ClientID:      c.ClientIP(),
		NetworkHash:   c.PostForm("networkhash"),
		ClientVersion: c.PostForm("clientversion"),
		OptionsHash:   c.PostForm("options_hash"),
		MovesCount:    c.PostForm("movescount"),
		WinnerColor:   c.PostForm("winnercolor"),
		RandomSeed:    c.PostForm("random_seed"),
		SGF:           sgf,
		TrainingData:  data,
	}

	done := s.timed(metrics.OpSubmitGame)
	hash, err := s.deps.SelfPlay.SubmitGame(c.Request.Context(), sub)
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, "Game data %s stored in database\n", hash)
}

// requestMatchBody is the /request-match payload, accepted as JSON or form.
type requestMatchBody struct {
	Key                string   `json:"key" form:"key"`
	Network1           string   `json:"network1" form:"network1"`
	Network2           string   `json:"network2" form:"network2"`
	Visits             int      `json:"visits" form:"visits"`
	Playouts           int      `json:"playouts" form:"playouts"`
	ResignationPercent *float64 `json:"resignation_percent" form:"resignation_percent"`
	Noise              *bool    `json:"noise" form:"noise"`
	RandomCnt          *int     `json:"randomcnt" form:"randomcnt"`
	NumberToPlay       int      `json:"number_to_play" form:"number_to_play"`
	IsTest             bool     `json:"is_test" form:"is_test"`
}

func (s *Server) requestMatch(c *gin.Context) {
	var body requestMatchBody
	if err := c.ShouldBind(&body); err != nil {
		c.String(http.StatusBadRequest, "invalid request: %v\n", err)
		return
	}

	if s.deps.AdminKey == "" || subtle.ConstantTimeCompare([]byte(body.Key), []byte(s.deps.AdminKey)) != 1 {
		s.logger.Warn("request-match auth failure", "client", c.ClientIP())
		c.String(http.StatusUnauthorized, "Incorrect key provided.\n")
		return
	}

	done := s.timed(metrics.OpRequestMatch)
	m, err := s.deps.Matches.RequestMatch(c.Request.Context(), service.MatchRequest{
		Network1:           body.Network1,
		Network2:           body.Network2,
		Visits:             body.Visits,
		Playouts:           body.Playouts,
		ResignationPercent: body.ResignationPercent,
		Noise:              body.Noise,
		RandomCnt:          body.RandomCnt,
		NumberToPlay:       body.NumberToPlay,
		IsTest:             body.IsTest,
	})
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, service.Summarize(*m))
}

func (s *Server) bestNetworkHash(c *gin.Context) {
	done := s.timed(metrics.OpChampionHash)
	hash, err := s.deps.Champion.Resolve(c.Request.Context())
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.String(http.StatusOK, "%s\n%s", hash, LegacyVersionLine)
}

func (s *Server) listMatches(c *gin.Context) {
	done := s.timed(metrics.OpListMatches)
	list, err := s.deps.Listing.List(c.Request.Context())
	done(err)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) stats(c *gin.Context) {
	if s.deps.Collector == nil {
		c.JSON(http.StatusOK, metrics.Snapshot{})
		return
	}
	c.JSON(http.StatusOK, s.deps.Collector.Snapshot())
}

func (s *Server) health(c *gin.Context) {
	if s.deps.Store != nil {
		if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
