package handlers

import (
	"fmt"
	"net/url"

	"github.com/vancomm/minefield/internal/repository"
)

// MaxViewArea bounds the rectangle a single board request may cover.
const MaxViewArea = 200 * 200

type ViewQuery struct {
	X      int `schema:"x"`
	Y      int `schema:"y"`
	Width  int `schema:"w,required"`
	Height int `schema:"h,required"`
}

func ParseViewQuery(src url.Values) (ViewQuery, error) {
	var q ViewQuery
	if err := decoder.Decode(&q, src); err != nil {
		return q, err
	}
	if q.Width <= 0 || q.Height <= 0 {
		return q, fmt.Errorf("w and h must be positive")
	}
	if q.Width*q.Height > MaxViewArea {
		return q, fmt.Errorf("requested area exceeds %d cells", MaxViewArea)
	}
	return q, nil
}

type ScoresQuery struct {
	Limit int `schema:"limit"`
}

func ParseScoresQuery(src url.Values) (ScoresQuery, error) {
	q := ScoresQuery{Limit: 10}
	if err := decoder.Decode(&q, src); err != nil {
		return q, err
	}
	if q.Limit < 0 {
		return q, fmt.Errorf("limit must not be negative")
	}
	return q, nil
}

func ParseCreatePlayer(src url.Values) (repository.CreatePlayerParams, error) {
	var params repository.CreatePlayerParams
	if err := decoder.Decode(&params, src); err != nil {
		return params, err
	}
	if params.Username == "" || len(params.Username) > 32 {
		return params, fmt.Errorf("username must be 1 to 32 bytes long")
	}
	return params, nil
}

type PlayerDTO struct {
	repository.Player
	Score int `json:"score"`
}

type RegisteredDTO struct {
	Player PlayerDTO `json:"player"`
	Token  string    `json:"token"`
}

type StatusDTO struct {
	LoggedIn bool       `json:"logged_in"`
	Player   *PlayerDTO `json:"player,omitempty"`
	Grid     any        `json:"grid"`
}
