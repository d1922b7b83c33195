package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"stranger_chat_server/pkg/errorx"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/chat/start", nil)
	return c, recorder
}

func decodeCode(t *testing.T, recorder *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body.Code
}

func TestHandleErrorBusinessCode(t *testing.T) {
	c, recorder := newTestContext(t)
	HandleError(c, errorx.New(errorx.CodeAccountNotExist, "账号不存在"))

	// 业务错误走 200，错误码在响应体里
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, errorx.CodeAccountNotExist, decodeCode(t, recorder))
}

func TestHandleErrorCapabilityUnavailable(t *testing.T) {
	c, recorder := newTestContext(t)
	HandleError(c, errorx.New(errorx.CodeCapabilityUnavailable, "存储只读"))

	// 能力不可用用 503 告知调用方稍后重试
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
	assert.Equal(t, errorx.CodeCapabilityUnavailable, decodeCode(t, recorder))
}

func TestHandleErrorUnknown(t *testing.T) {
	c, recorder := newTestContext(t)
	HandleError(c, errors.New("boom"))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, errorx.CodeServerBusy, decodeCode(t, recorder))
}
