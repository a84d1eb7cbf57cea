package etims

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	app "github.com/tu-usuario/etims-bridge/internal/application/etims"
	domainetims "github.com/tu-usuario/etims-bridge/internal/domain/etims"
)

// resultCodeOK es el código de aceptación del API eTims.
const resultCodeOK = "000"

var _ app.Submitter = (*Client)(nil)

// Client implementa el puerto Submitter contra el API JSON del OSCU/VSCU de
// la KRA. La autenticación va en cabeceras (tin, bhfId, cmcKey); no hay
// sesión ni token.
type Client struct {
	httpClient *http.Client
}

// NewClient construye el cliente HTTP con el timeout indicado. El servidor
// eTims puede tardar varios segundos en responder; usar un timeout generoso.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// apiResponse envoltura estándar de las respuestas eTims.
type apiResponse struct {
	ResultCode    string          `json:"resultCd"`
	ResultMessage string          `json:"resultMsg"`
	ResultDate    string          `json:"resultDt"`
	Data          json.RawMessage `json:"data"`
}

// saveSalesData bloque data de la respuesta a saveSales cuando es aceptada.
type saveSalesData struct {
	SCUID            string `json:"sdcId"`
	ReceiptSignature string `json:"rcptSign"`
	InternalData     string `json:"intrlData"`
	ReceiptNo        int64  `json:"curRcptNo"`
}

// SubmitSales envía el payload de venta a serverURL+urlPath y normaliza la
// respuesta. Un resultCd distinto de "000" no es error de transporte: se
// devuelve con Accepted=false para que el caller decida.
func (c *Client) SubmitSales(ctx context.Context, serverURL, urlPath string, creds app.Credentials, payload *domainetims.InvoicePayload) (*app.SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("etims: serializar payload: %w", err)
	}

	url := strings.TrimRight(serverURL, "/") + urlPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("etims: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("tin", creds.TIN)
	req.Header.Set("bhfId", creds.BranchID)
	req.Header.Set("cmcKey", creds.CommunicationKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("etims: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("etims: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("etims: leer respuesta: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("etims: HTTP %d: %s", resp.StatusCode, string(rawBody))
	}

	return parseResponse(rawBody)
}

// parseResponse desempaqueta la envoltura eTims y extrae los datos del SCU.
func parseResponse(rawBody []byte) (*app.SubmitResult, error) {
	var env apiResponse
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("etims: parsear respuesta: %w: %s", err, string(rawBody))
	}

	result := &app.SubmitResult{
		ResultCode:      env.ResultCode,
		ResultMessage:   env.ResultMessage,
		ResultTimestamp: env.ResultDate,
		Accepted:        env.ResultCode == resultCodeOK,
	}
	if result.Accepted && len(env.Data) > 0 {
		var data saveSalesData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("etims: parsear data del SCU: %w", err)
		}
		result.SCUID = data.SCUID
		result.ReceiptSignature = data.ReceiptSignature
		result.InternalData = data.InternalData
	}
	return result, nil
}
