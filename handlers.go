package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

/*** Requests / responses ***/

type SelectChoiceReq struct {
	Index *int `json:"index" binding:"required,min=0"`
}

type FlagReq struct {
	Flag    string `json:"flag" binding:"required,oneof=a b c"`
	Checked *bool  `json:"checked" binding:"required"`
}

type PickMissedReq struct {
	Seed *int64 `json:"seed"` // optional, for reproducibility
}

type ConfirmResetReq struct {
	Token string `json:"token" binding:"required"`
}

// viewerFor resolves the Viewer of the browser identity set by EnsureUser.
func viewerFor(c *gin.Context, reg *Registry) (*Viewer, bool) {
	pubID := c.GetString(ctxPublicID)
	if pubID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no user"})
		return nil, false
	}
	return reg.Viewer(pubID), true
}

func filtersFromQuery(c *gin.Context) Filters {
	return ParseFilters(
		c.DefaultQuery("year", "ALL"),
		c.DefaultQuery("exam", "ALL"),
		c.DefaultQuery("sort", string(SortByNo)),
		c.Query("onlyReviewed"),
		c.Query("onlyWrong"),
	)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnknownQuestion):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidChoice), errors.Is(err, ErrUnknownFlag), errors.Is(err, ErrUnknownEvent):
		return http.StatusBadRequest
	case errors.Is(err, ErrResetNotConfirmed), errors.Is(err, ErrNothingMissed):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondInteraction answers an event with the card and stats it produced.
func respondInteraction(c *gin.Context, out Interaction, err error) {
	if err != nil {
		c.JSON(errorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

/*** Listing ***/

// GET /api/v1/filters
func ListFilters(bank *Bank) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, FilterOptions{Years: bank.Years(), Exams: bank.Exams()})
	}
}

// GET /api/v1/questions?year=&exam=&sort=&onlyReviewed=&onlyWrong=
func ListQuestions(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, v.Page(filtersFromQuery(c)))
	}
}

// GET /api/v1/questions/:id
func GetQuestion(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		card, err := v.Card(c.Param("id"))
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, card)
	}
}

/*** Interactions ***/

// POST /api/v1/questions/:id/toggle
func ToggleAnswer(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		out, err := v.Interact(Event{Kind: EventToggle, QuestionID: c.Param("id")})
		respondInteraction(c, out, err)
	}
}

// POST /api/v1/questions/:id/select
func SelectChoice(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		var req SelectChoiceReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
		out, err := v.Interact(Event{Kind: EventSelect, QuestionID: c.Param("id"), Choice: *req.Index})
		respondInteraction(c, out, err)
	}
}

// POST /api/v1/questions/:id/flags
func SetFlag(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		var req FlagReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
		out, err := v.Interact(Event{
			Kind:       EventFlag,
			QuestionID: c.Param("id"),
			Flag:       req.Flag,
			Checked:    *req.Checked,
		})
		respondInteraction(c, out, err)
	}
}

// POST /api/v1/missed/pick?year=&exam=...
func PickMissed(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		var req PickMissedReq
		_ = c.ShouldBindJSON(&req) // body is optional
		out, err := v.Interact(Event{Kind: EventPickMissed, Filters: filtersFromQuery(c), Seed: req.Seed})
		respondInteraction(c, out, err)
	}
}

/*** Reset (two-step) ***/

// POST /api/v1/reset
func RequestReset(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"token":      v.RequestReset(),
			"expiresSec": int(resetTokenTTL.Seconds()),
			"message":    "チェックを全てリセットします。よろしいですか？",
		})
	}
}

// POST /api/v1/reset/confirm
func ConfirmReset(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := viewerFor(c, reg)
		if !ok {
			return
		}
		var req ConfirmResetReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		out, err := v.ConfirmReset(req.Token)
		respondInteraction(c, out, err)
	}
}
