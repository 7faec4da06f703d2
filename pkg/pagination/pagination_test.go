package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		page, limit int
		want        Params
	}{
		{"defaults", 0, 0, Params{Page: 1, Limit: 20, Offset: 0}},
		{"second page", 2, 10, Params{Page: 2, Limit: 10, Offset: 10}},
		{"limit capped", 3, 500, Params{Page: 3, Limit: 100, Offset: 200}},
		{"negative page", -4, 5, Params{Page: 1, Limit: 5, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.page, tt.limit))
		})
	}
}

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/reportGet?page=3&limit=abc", nil)

	assert.Equal(t, Params{Page: 3, Limit: 20, Offset: 40}, Parse(c))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))
}
