package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/civic_issue_map/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestListMessages_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()
	msgs := []*models.ChatMessage{
		{ID: "m1", GroupID: id, SenderID: "u1", Text: "hi", CreatedAt: models.NewMillis(time.UnixMilli(1000))},
		{ID: "m2", GroupID: id, SenderID: "u2", SenderName: strPtr("asha"), Text: "hello", CreatedAt: models.NewMillis(time.UnixMilli(2000))},
	}

	deps.chat.EXPECT().ListMessages(gomock.Any(), id).Return(msgs, nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/groups/"+id+"/messages", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Nil(t, resp[0].SenderName)
	require.NotNil(t, resp[1].SenderName)
	assert.Equal(t, "asha", *resp[1].SenderName)
	assert.Equal(t, int64(2000), resp[1].CreatedAt)
}

func TestListMessages_InvalidID(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.chat.EXPECT().ListMessages(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "GET", "/api/v1/groups/nope/messages", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessage_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.chat.EXPECT().
		SendMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg *models.ChatMessage) error {
			assert.Equal(t, id, msg.GroupID)
			assert.Equal(t, "u1", msg.SenderID)
			msg.ID = "m1"
			msg.CreatedAt = models.NewMillis(time.UnixMilli(1700000000000))
			return nil
		}).Times(1)

	w := makeRequest(router, "POST", "/api/v1/groups/"+id+"/messages", bytes.NewBufferString(`{"senderId":"u1","text":"on my way","createdAt":1}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp MessageResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "m1", resp.ID)
	assert.Equal(t, int64(1700000000000), resp.CreatedAt)
}

func TestSendMessage_ValidationError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, "POST", "/api/v1/groups/"+uuid.NewString()+"/messages", bytes.NewBufferString(`{"senderId":"u1"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Error:Field validation for 'Text' failed on the 'required' tag")
}

func TestSendMessage_GroupNotFound(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(models.ErrNotFound).Times(1)

	w := makeRequest(router, "POST", "/api/v1/groups/"+uuid.NewString()+"/messages", bytes.NewBufferString(`{"senderId":"u1","text":"hi"}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSendMessage_ServiceError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.chat.EXPECT().SendMessage(gomock.Any(), gomock.Any()).Return(errors.New("insert failed")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/groups/"+uuid.NewString()+"/messages", bytes.NewBufferString(`{"senderId":"u1","text":"hi"}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestStreamMessages_SendsEvents(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()
	msgs := make(chan *models.ChatMessage, 1)
	msgs <- &models.ChatMessage{ID: "m1", GroupID: id, SenderID: "u1", Text: "hi"}
	close(msgs)

	deps.chat.EXPECT().StreamMessages(gomock.Any(), id).Return((<-chan *models.ChatMessage)(msgs), nil).Times(1)

	w := makeRequest(router, "GET", "/api/v1/groups/"+id+"/stream", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:message")
	assert.Contains(t, w.Body.String(), `"id":"m1"`)
}

func TestStreamMessages_GroupNotFound(t *testing.T) {
	_, deps, router := newTestHandler(t)
	id := uuid.NewString()

	deps.chat.EXPECT().StreamMessages(gomock.Any(), id).Return(nil, models.ErrNotFound).Times(1)

	w := makeRequest(router, "GET", "/api/v1/groups/"+id+"/stream", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUser_Success(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.users.EXPECT().
		CreateUser(gomock.Any(), "asha").
		Return(&models.User{ID: "u1", Username: "asha"}, nil).
		Times(1)

	w := makeRequest(router, "POST", "/api/v1/users", bytes.NewBufferString(`{"username":"asha"}`))

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "u1", resp.ID)
	assert.Equal(t, "asha", resp.Username)
}

func TestCreateUser_ServiceError(t *testing.T) {
	_, deps, router := newTestHandler(t)

	deps.users.EXPECT().CreateUser(gomock.Any(), "").Return(nil, errors.New("insert failed")).Times(1)

	w := makeRequest(router, "POST", "/api/v1/users", bytes.NewBufferString(`{}`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
