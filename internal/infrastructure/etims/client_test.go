package etims

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	app "github.com/tu-usuario/etims-bridge/internal/application/etims"
	domainetims "github.com/tu-usuario/etims-bridge/internal/domain/etims"
)

func testCreds() app.Credentials {
	return app.Credentials{
		TIN:              "P051234567K",
		BranchID:         "00",
		CommunicationKey: "cmc-key-sandbox",
	}
}

func testPayload() *domainetims.InvoicePayload {
	return &domainetims.InvoicePayload{
		InvoiceNo:       7,
		TraderInvoiceNo: "ACC-SINV-2024-00042",
		ReceiptTypeCd:   domainetims.ReceiptTypeSale,
		TotalAmt:        decimal.NewFromInt(232),
	}
}

func TestClient_SubmitSales_Aceptada(t *testing.T) {
	var gotHeaders http.Header
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotPath = r.URL.Path

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 7, body["invcNo"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"resultCd": "000",
			"resultMsg": "Successful",
			"resultDt": "20240315143010",
			"data": {
				"sdcId": "KRACU0100000001",
				"rcptSign": "ABCD1234EFGH",
				"intrlData": "WXYZ-9876",
				"curRcptNo": 7
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	result, err := client.SubmitSales(context.Background(), srv.URL, "/trnsSales/saveSales", testCreds(), testPayload())
	require.NoError(t, err)

	assert.True(t, result.Accepted)
	assert.Equal(t, "000", result.ResultCode)
	assert.Equal(t, "20240315143010", result.ResultTimestamp)
	assert.Equal(t, "KRACU0100000001", result.SCUID)
	assert.Equal(t, "ABCD1234EFGH", result.ReceiptSignature)
	assert.Equal(t, "WXYZ-9876", result.InternalData)

	// Credenciales en cabeceras, no en el body.
	assert.Equal(t, "/trnsSales/saveSales", gotPath)
	assert.Equal(t, "P051234567K", gotHeaders.Get("tin"))
	assert.Equal(t, "00", gotHeaders.Get("bhfId"))
	assert.Equal(t, "cmc-key-sandbox", gotHeaders.Get("cmcKey"))
	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
}

func TestClient_SubmitSales_Rechazada(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCd": "881", "resultMsg": "Invalid item classification", "resultDt": "20240315143010"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	result, err := client.SubmitSales(context.Background(), srv.URL, "/trnsSales/saveSales", testCreds(), testPayload())

	// Rechazo de negocio: no es error de transporte.
	require.NoError(t, err)
	assert.False(t, result.Accepted)
	assert.Equal(t, "881", result.ResultCode)
	assert.Equal(t, "Invalid item classification", result.ResultMessage)
	assert.Empty(t, result.ReceiptSignature)
}

func TestClient_SubmitSales_HTTPNoOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway timeout", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.SubmitSales(context.Background(), srv.URL, "/trnsSales/saveSales", testCreds(), testPayload())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestClient_SubmitSales_ServerURLConSlashFinal(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"resultCd": "000", "resultMsg": "OK", "resultDt": "20240315143010"}`))
	}))
	defer srv.Close()

	client := NewClient(5 * time.Second)
	_, err := client.SubmitSales(context.Background(), srv.URL+"/", "/trnsSales/saveSales", testCreds(), testPayload())
	require.NoError(t, err)
	assert.Equal(t, "/trnsSales/saveSales", gotPath, "sin doble slash entre server y path")
}

func TestClient_SubmitSales_ContextoCancelado(t *testing.T) {
	// El handler drena el body (sin leerlo el server nunca observa la
	// desconexión del cliente) y se libera cuando la llamada ya retornó,
	// para que srv.Close no quede esperando la conexión activa.
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := NewClient(5 * time.Second)
	_, err := client.SubmitSales(ctx, srv.URL, "/trnsSales/saveSales", testCreds(), testPayload())
	close(release)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseResponse_JSONInvalido(t *testing.T) {
	_, err := parseResponse([]byte("<html>not json</html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsear respuesta")
}
