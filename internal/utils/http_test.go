package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func testContext(target string, headers map[string]string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c
}

func TestUrlFor(t *testing.T) {
	c := testContext("http://attendance.local/api", nil)
	if got := UrlFor(c, "api/meetings/1"); got != "http://attendance.local/api/meetings/1" {
		t.Errorf("unexpected url %s", got)
	}

	c = testContext("http://attendance.local/api", map[string]string{"X-Forwarded-Proto": "https"})
	if got := UrlFor(c, "/health"); got != "https://attendance.local/health" {
		t.Errorf("unexpected url behind proxy %s", got)
	}
}

func TestGetBaseURL(t *testing.T) {
	c := testContext("http://attendance.local/", nil)
	if got := GetBaseURL(c, "https://hr.example.com"); got != "https://hr.example.com" {
		t.Errorf("configured base url ignored: %s", got)
	}
	if got := GetBaseURL(c, ""); got != "http://attendance.local" {
		t.Errorf("unexpected detected base url %s", got)
	}
}

func TestUrlForConfiguredBase(t *testing.T) {
	c := testContext("http://10.0.0.5:8080/api", nil)
	c.Set(BaseURLKey, "https://hr.example.com/")
	if got := UrlFor(c, "/api/staff/7"); got != "https://hr.example.com/api/staff/7" {
		t.Errorf("unexpected url %s", got)
	}
}
