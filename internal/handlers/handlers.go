package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"
)

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func SendJSON(w http.ResponseWriter, status int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(payload)
	return err
}

func sendJSONOrLog(w http.ResponseWriter, logger *logrus.Logger, v any) {
	if err := SendJSON(w, http.StatusOK, v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		logger.WithError(err).WithField("response", v).Error("unable to send response")
	}
}

func sendErrorOrLog(w http.ResponseWriter, logger *logrus.Logger, status int, e error) {
	if err := SendJSON(w, status, wrapError(e)); err != nil {
		logger.WithError(err).WithField("sent_error", e).Error("failed to send error message")
	}
}

func internalError(w http.ResponseWriter, logger *logrus.Logger, msg string, err error) {
	logger.WithError(err).Error(msg)
	w.WriteHeader(http.StatusInternalServerError)
}

func wrapError(err error) map[string]string {
	return map[string]string{
		"error": err.Error(),
	}
}
