package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elevator-access-backend/internal/model"
)

type cardsResponse struct {
	Cards []model.Card `json:"cards"`
	Total int          `json:"total"`
}

type cardResponse struct {
	Card model.Card `json:"card"`
}

func apartmentCards(t *testing.T, ts *testServer, apartmentID string) map[model.CardType]model.Card {
	t.Helper()
	w := ts.do(t, http.MethodGet, "/api/cards/apartment/"+apartmentID, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp cardsResponse
	decode(t, w, &resp)
	out := map[model.CardType]model.Card{}
	for _, c := range resp.Cards {
		out[c.CardType] = c
	}
	return out
}

func TestListCards(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/cards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp cardsResponse
	decode(t, w, &resp)
	assert.Equal(t, 3, resp.Total)

	cards := apartmentCards(t, ts, "apt-201")
	assert.Len(t, cards, 3)
	assert.Empty(t, apartmentCards(t, ts, "apt-999"))

	w = ts.do(t, http.MethodGet, "/api/cards/apartment/201", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCardActivation(t *testing.T) {
	ts := newTestServer(t)
	guest := apartmentCards(t, ts, "apt-201")[model.CardTypeGuest]

	w := ts.do(t, http.MethodPost, "/api/elevator/command", command("201", "C", "ACTIVATE"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/cards/%d/activate", guest.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp cardResponse
	decode(t, w, &resp)
	assert.True(t, resp.Card.Active)

	w = ts.do(t, http.MethodPost, "/api/elevator/command", command("201", "C", "ACTIVATE"))
	require.Equal(t, http.StatusOK, w.Code)

	// The successful command stamps the card.
	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/cards/%d", guest.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &resp)
	assert.NotNil(t, resp.Card.LastUsedAt)

	w = ts.do(t, http.MethodPost, fmt.Sprintf("/api/cards/%d/deactivate", guest.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/api/elevator/command", command("201", "C", "DEACTIVATE"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/cards/9999/activate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateUpdateDeleteCard(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/cards", map[string]string{"apartmentId": "apt-201", "cardType": "A", "name": "Spare"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = ts.do(t, http.MethodPost, "/api/cards", map[string]string{"apartmentId": "apt-402", "cardType": "B", "name": "Spare"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created cardResponse
	decode(t, w, &created)
	assert.Equal(t, "402", created.Card.UnitNumber)
	assert.False(t, created.Card.Active)

	for _, body := range []map[string]string{
		{"apartmentId": "402", "cardType": "C", "name": "x"},
		{"apartmentId": "apt-402", "cardType": "Z", "name": "x"},
		{"apartmentId": "apt-402", "cardType": "C", "name": "   "},
	} {
		w := ts.do(t, http.MethodPost, "/api/cards", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, fmt.Sprint(body))
	}

	path := fmt.Sprintf("/api/cards/%d", created.Card.ID)
	w = ts.do(t, http.MethodPut, path, map[string]any{"name": "Nanny", "active": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated cardResponse
	decode(t, w, &updated)
	assert.Equal(t, "Nanny", updated.Card.Name)
	assert.True(t, updated.Card.Active)

	w = ts.do(t, http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCardListingsAreCached(t *testing.T) {
	ts := newTestServer(t)
	guest := apartmentCards(t, ts, "apt-201")[model.CardTypeGuest]

	w := ts.do(t, http.MethodGet, "/api/cards", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodGet, "/api/cards", nil)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	// A write through the API invalidates the listing.
	ts.do(t, http.MethodPost, fmt.Sprintf("/api/cards/%d/activate", guest.ID), nil)
	w = ts.do(t, http.MethodGet, "/api/cards", nil)
	assert.Empty(t, w.Header().Get("X-Cache"))
}
