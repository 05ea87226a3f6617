package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// httpStatus maps an RPC error code onto the closest HTTP status.
func httpStatus(code int) int {
	switch code {
	case int(codeInvalidParams), int(codeTimezone):
		return http.StatusBadRequest
	case int(codeNotInitialized):
		return http.StatusServiceUnavailable
	case int(codeNetwork):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	code := int(errorCode(err))
	c.AbortWithStatusJSON(httpStatus(code), errorBody{Code: code, Message: err.Error()})
}

func (s *HTTPServer) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"initialized": s.api.Resolver().Initialized(),
	})
}

func (s *HTTPServer) getSchedule(c *gin.Context) {
	resp, err := s.api.Schedule(c.Query("date"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) getMonth(c *gin.Context) {
	resp, err := s.api.Month(c.Query("month"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) getNext(c *gin.Context) {
	resp, err := s.api.NextPrayer()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) getQibla(c *gin.Context) {
	resp, err := s.api.Qibla()
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *HTTPServer) getAudio(c *gin.Context) {
	c.JSON(http.StatusOK, s.api.AudioStatus())
}
