package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/borsa/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestListHoldings_ParsesPositions(t *testing.T) {
	var capturedPath, capturedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"positions": []map[string]interface{}{
					{"_id": "1", "symbol": "THYAO", "quantity": 100, "averagePrice": 25.5},
					{"_id": "2", "symbol": "GARAN", "quantity": 40, "averagePrice": 80},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithToken("tok"))
	holdings, err := client.ListHoldings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/portfolio", capturedPath)
	assert.Equal(t, "Bearer tok", capturedAuth)
	require.Len(t, holdings, 2)
	assert.Equal(t, models.Holding{ID: "1", Symbol: "THYAO", Quantity: 100, AveragePrice: 25.5}, holdings[0])
	assert.Equal(t, "GARAN", holdings[1].Symbol)
}

func TestListHoldings_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Portfolio not found"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	holdings, err := client.ListHoldings(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, holdings)
	assert.Empty(t, holdings)
}

func TestListHoldings_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal server error"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.ListHoldings(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestCreateHolding_SendsPayload(t *testing.T) {
	var got models.NewHolding
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"_id": "abc", "symbol": got.Symbol, "quantity": got.Quantity, "averagePrice": got.AveragePrice},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	h, err := client.CreateHolding(context.Background(), models.NewHolding{Symbol: "SISE", Quantity: 10, AveragePrice: 45.2})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, models.NewHolding{Symbol: "SISE", Quantity: 10, AveragePrice: 45.2}, got)
	assert.Equal(t, "abc", h.ID)
	assert.Equal(t, "SISE", h.Symbol)
}

func TestCreateHolding_ErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Bu hisse zaten portfolyoda"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.CreateHolding(context.Background(), models.NewHolding{Symbol: "SISE"})
	require.Error(t, err)

	assert.Equal(t, "Bu hisse zaten portfolyoda", UserMessage(err, "Pozisyon eklenemedi"))
}

func TestDeleteHolding_Path(t *testing.T) {
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	require.NoError(t, client.DeleteHolding(context.Background(), "65f1"))

	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/api/portfolio/65f1", path)
}

func TestGetQuote_ParsesResponse(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"symbol": "THYAO", "name": "Türk Hava Yolları", "price": 30.0, "changePercent": 1.5},
		})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	q, err := client.GetQuote(context.Background(), "THYAO")
	require.NoError(t, err)

	assert.Equal(t, "/api/stocks/THYAO", capturedPath)
	assert.Equal(t, "THYAO", q.Symbol)
	assert.Equal(t, "Türk Hava Yolları", q.Name)
	assert.Equal(t, 30.0, q.Price)
	require.NotNil(t, q.ChangePercent)
	assert.Equal(t, 1.5, *q.ChangePercent)
}

func TestGetQuote_MissingOptionalFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"price": 12.5}})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	q, err := client.GetQuote(context.Background(), "AKBNK")
	require.NoError(t, err)

	assert.Equal(t, "AKBNK", q.Symbol, "symbol falls back to the requested one")
	assert.Equal(t, "", q.Name)
	assert.Nil(t, q.ChangePercent)
}

func TestGetQuote_EmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": nil})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetQuote(context.Background(), "AKBNK")
	assert.Error(t, err)
}

func TestGetQuote_UnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "message": "Hisse bulunamadı"})
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, "Hisse bulunamadı", UserMessage(err, "fallback"))
}

func TestWatchlist_RoundTrip(t *testing.T) {
	var posted map[string][]string
	var deletedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"symbols": []string{"GARAN", "AKBNK"}}})
		case http.MethodPost:
			json.NewDecoder(r.Body).Decode(&posted)
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		case http.MethodDelete:
			deletedPath = r.URL.Path
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
		}
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	ctx := context.Background()

	symbols, err := client.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"GARAN", "AKBNK"}, symbols)

	require.NoError(t, client.AddSymbols(ctx, []string{"EREGL"}))
	assert.Equal(t, map[string][]string{"symbols": {"EREGL"}}, posted)

	require.NoError(t, client.RemoveSymbol(ctx, "GARAN"))
	assert.Equal(t, "/api/watchlist/GARAN", deletedPath)
}

func TestListSymbols_NotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	symbols, err := client.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Empty(t, symbols)
}

func TestUserMessage_Fallback(t *testing.T) {
	assert.Equal(t, "generic", UserMessage(errors.New("dial tcp: refused"), "generic"))
	assert.Equal(t, "generic", UserMessage(&APIError{StatusCode: 500}, "generic"))
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{"price": 1}})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.GetQuote(ctx, "THYAO")
	assert.Error(t, err)
}
