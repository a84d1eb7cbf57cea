package etims

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/etims-bridge/internal/domain"
	"github.com/tu-usuario/etims-bridge/internal/domain/entity"
	domainetims "github.com/tu-usuario/etims-bridge/internal/domain/etims"
	"github.com/tu-usuario/etims-bridge/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeSettingRepo struct {
	mu       sync.Mutex
	settings map[string]*entity.EnvironmentSetting // company|env|branch -> setting activo
}

func newFakeSettingRepo() *fakeSettingRepo {
	return &fakeSettingRepo{settings: make(map[string]*entity.EnvironmentSetting)}
}

func settingKey(company, environment, branchID string) string {
	return company + "|" + environment + "|" + branchID
}

func (r *fakeSettingRepo) Create(_ context.Context, s *entity.EnvironmentSetting) error {
	r.settings[settingKey(s.Company, s.Environment, s.BranchID)] = s
	return nil
}

func (r *fakeSettingRepo) FindActive(_ context.Context, company, environment, branchID string) (*entity.EnvironmentSetting, error) {
	return r.settings[settingKey(company, environment, branchID)], nil
}

func (r *fakeSettingRepo) ListByCompany(_ context.Context, company string) ([]*entity.EnvironmentSetting, error) {
	var out []*entity.EnvironmentSetting
	for _, s := range r.settings {
		if s.Company == company {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSettingRepo) AllocateNextSalesNumber(_ context.Context, company, environment, branchID string) (int64, error) {
	// Serializa como lo hace el lock de fila del UPDATE atómico en postgres.
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[settingKey(company, environment, branchID)]
	if !ok {
		return 0, fmt.Errorf("%w: company=%s environment=%s branch=%s",
			domain.ErrConfigurationMissing, company, environment, branchID)
	}
	if !s.HasSalesCounter() {
		return 0, fmt.Errorf("%w: setting %s sin contador", domain.ErrSequenceUnavailable, s.ID)
	}
	s.MostRecentSalesNumber++
	return s.MostRecentSalesNumber, nil
}

func (r *fakeSettingRepo) Update(_ context.Context, s *entity.EnvironmentSetting) error {
	r.settings[settingKey(s.Company, s.Environment, s.BranchID)] = s
	return nil
}

type fakeInvoiceRepo struct {
	invoices map[string]*entity.SalesInvoice
	items    map[string][]*entity.SalesInvoiceItem
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{
		invoices: make(map[string]*entity.SalesInvoice),
		items:    make(map[string][]*entity.SalesInvoiceItem),
	}
}

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.SalesInvoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *fakeInvoiceRepo) CreateItem(_ context.Context, it *entity.SalesInvoiceItem) error {
	r.items[it.InvoiceID] = append(r.items[it.InvoiceID], it)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*entity.SalesInvoice, error) {
	return r.invoices[id], nil
}

func (r *fakeInvoiceRepo) GetItemsByInvoiceID(_ context.Context, invoiceID string) ([]*entity.SalesInvoiceItem, error) {
	return r.items[invoiceID], nil
}

func (r *fakeInvoiceRepo) ListByCompany(_ context.Context, _ string, _, _ int) ([]*entity.SalesInvoice, error) {
	return nil, nil
}

func (r *fakeInvoiceRepo) UpdateSubmission(_ context.Context, inv *entity.SalesInvoice) error {
	if _, ok := r.invoices[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	r.invoices[inv.ID] = inv
	return nil
}

type fakeRouteRepo struct {
	routes   map[string]*entity.Route
	recorded map[string]time.Time
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{routes: make(map[string]*entity.Route), recorded: make(map[string]time.Time)}
}

func (r *fakeRouteRepo) Upsert(_ context.Context, route *entity.Route) error {
	r.routes[route.Operation] = route
	return nil
}

func (r *fakeRouteRepo) FindByOperation(_ context.Context, operation string) (*entity.Route, error) {
	return r.routes[operation], nil
}

func (r *fakeRouteRepo) List(_ context.Context) ([]*entity.Route, error) {
	var out []*entity.Route
	for _, rt := range r.routes {
		out = append(out, rt)
	}
	return out, nil
}

func (r *fakeRouteRepo) RecordRequest(_ context.Context, urlPath string, at time.Time) error {
	r.recorded[urlPath] = at
	return nil
}

type fakeSubmitter struct {
	result *SubmitResult
	err    error

	calls    int
	gotURL   string
	gotPath  string
	gotCreds Credentials
	gotBody  *domainetims.InvoicePayload
}

func (s *fakeSubmitter) SubmitSales(_ context.Context, serverURL, urlPath string, creds Credentials, payload *domainetims.InvoicePayload) (*SubmitResult, error) {
	s.calls++
	s.gotURL = serverURL
	s.gotPath = urlPath
	s.gotCreds = creds
	s.gotBody = payload
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type fakeQR struct{}

func (fakeQR) Generate(data string) (string, error) {
	return "data:image/png;base64," + data, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type submitFixture struct {
	settings  *fakeSettingRepo
	invoices  *fakeInvoiceRepo
	routes    *fakeRouteRepo
	submitter *fakeSubmitter
	uc        *SubmitInvoiceUseCase
}

func newSubmitFixture(t *testing.T, submitter *fakeSubmitter) *submitFixture {
	t.Helper()

	settings := newFakeSettingRepo()
	invoices := newFakeInvoiceRepo()
	routes := newFakeRouteRepo()
	log := logger.New(logger.Config{Env: "production", Level: "error"})

	require.NoError(t, settings.Create(context.Background(), &entity.EnvironmentSetting{
		ID:                    "set-1",
		Company:               "Acme Distributors Ltd",
		BranchID:              "00",
		Environment:           entity.EnvironmentSandbox,
		ServerURL:             "https://etims-api-sbx.kra.go.ke/etims-api",
		TIN:                   "P051234567K",
		CommunicationKey:      "cmc-key-sandbox",
		MostRecentSalesNumber: 0,
		IsActive:              true,
	}))
	require.NoError(t, routes.Upsert(context.Background(), &entity.Route{
		ID:        "route-1",
		Operation: entity.OpSaveSales,
		URLPath:   "/trnsSales/saveSales",
	}))

	resolver, err := NewSettingsResolver(settings, entity.EnvironmentSandbox, "00")
	require.NoError(t, err)
	allocator := NewSequenceAllocator(settings, entity.EnvironmentSandbox, "00")
	routesUC := NewRouteRegistryUseCase(routes, nil, log)

	uc := NewSubmitInvoiceUseCase(invoices, resolver, allocator, routesUC, submitter, fakeQR{}, log)
	return &submitFixture{settings: settings, invoices: invoices, routes: routes, submitter: submitter, uc: uc}
}

func (f *submitFixture) addInvoice(t *testing.T, id string) *entity.SalesInvoice {
	t.Helper()
	inv := &entity.SalesInvoice{
		ID:                      id,
		Company:                 "Acme Distributors Ltd",
		BranchID:                "00",
		Name:                    "ACC-SINV-2024-00042",
		CustomerPIN:             "A012345678Z",
		PostingDate:             "2024-03-15",
		PostingTime:             "14:30:05",
		PaymentTypeCode:         "01",
		TransactionProgressCode: "02",
		BaseNetTotal:            decimal.NewFromInt(200),
		TotalTaxesAndCharges:    decimal.NewFromInt(32),
		TaxableAmountB:          decimal.NewFromInt(200),
		TaxAmountB:              decimal.NewFromInt(32),
		SubmissionStatus:        entity.SubmissionStatusPending,
	}
	require.NoError(t, f.invoices.Create(context.Background(), inv))
	require.NoError(t, f.invoices.CreateItem(context.Background(), &entity.SalesInvoiceItem{
		ID:             id + "-item-1",
		InvoiceID:      id,
		Seq:            1,
		ItemCode:       "KE1NTXU0000001",
		Name:           "Widget industrial",
		Quantity:       decimal.NewFromInt(2),
		BaseRate:       decimal.NewFromInt(100),
		TaxationTypeCd: domainetims.TaxBandB,
		TaxableTotal:   decimal.NewFromInt(200),
		TaxBreakup:     map[string]decimal.Decimal{"VAT": decimal.NewFromInt(32)},
	}))
	return inv
}

func acceptedResult() *SubmitResult {
	return &SubmitResult{
		ResultCode:       "000",
		ResultMessage:    "Successful",
		ResultTimestamp:  "20240315143010",
		Accepted:         true,
		SCUID:            "KRACU0100000001",
		ReceiptSignature: "ABCD1234EFGH",
		InternalData:     "WXYZ-9876",
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_VentaAceptada(t *testing.T) {
	submitter := &fakeSubmitter{result: acceptedResult()}
	f := newSubmitFixture(t, submitter)
	f.addInvoice(t, "inv-1")

	out, err := f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusSubmitted, out.Status)
	assert.Equal(t, int64(1), out.SubmissionSequence, "primer número de la secuencia")
	assert.Equal(t, "KRACU0100000001", out.SCUID)
	assert.Equal(t, "ABCD1234EFGH", out.ReceiptSignature)

	// QR de verificación: portal sandbox + TIN + bhfId + rcptSign.
	assert.Contains(t, out.QRData, "data:image/png;base64,")
	assert.Contains(t, out.QRData, "P051234567K00ABCD1234EFGH")
	assert.Contains(t, out.QRData, "etims-sbx.kra.go.ke")

	// SubmittedAt viene del resultDt de la respuesta.
	require.NotNil(t, out.SubmittedAt)
	assert.Equal(t, 2024, out.SubmittedAt.Year())
	assert.Equal(t, 10, out.SubmittedAt.Second())

	// El transporte recibió server, path y credenciales del setting.
	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, "https://etims-api-sbx.kra.go.ke/etims-api", submitter.gotURL)
	assert.Equal(t, "/trnsSales/saveSales", submitter.gotPath)
	assert.Equal(t, "P051234567K", submitter.gotCreds.TIN)
	assert.Equal(t, "cmc-key-sandbox", submitter.gotCreds.CommunicationKey)
	require.NotNil(t, submitter.gotBody)
	assert.Equal(t, int64(1), submitter.gotBody.InvoiceNo)

	// Bookkeeping de throttle: last-request registrado contra el path.
	_, ok := f.routes.recorded["/trnsSales/saveSales"]
	assert.True(t, ok, "debe registrarse el last-request de la ruta")

	// El contador quedó consumido de forma durable.
	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	assert.Equal(t, int64(1), setting.MostRecentSalesNumber)
}

func TestSubmit_Rechazo(t *testing.T) {
	submitter := &fakeSubmitter{result: &SubmitResult{
		ResultCode:    "881",
		ResultMessage: "Invalid item classification",
		Accepted:      false,
	}}
	f := newSubmitFixture(t, submitter)
	f.addInvoice(t, "inv-1")

	out, err := f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusRejected, out.Status)
	assert.Contains(t, out.Errors, "881")
	assert.Contains(t, out.Errors, "Invalid item classification")
	assert.Empty(t, out.QRData)

	// El número se consumió aunque la KRA rechazó: hueco, nunca reuso.
	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	assert.Equal(t, int64(1), setting.MostRecentSalesNumber)
}

func TestSubmit_FalloDeTransporte(t *testing.T) {
	transportErr := errors.New("dial tcp: connection refused")
	submitter := &fakeSubmitter{err: transportErr}
	f := newSubmitFixture(t, submitter)
	f.addInvoice(t, "inv-1")

	_, err := f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	require.Error(t, err)
	assert.ErrorIs(t, err, transportErr, "el error de transporte se propaga sin envolver")

	// La factura quedó marcada ERROR y el número consumido.
	inv, _ := f.invoices.GetByID(context.Background(), "inv-1")
	assert.Equal(t, entity.SubmissionStatusError, inv.SubmissionStatus)
	assert.Contains(t, inv.SubmissionErrors, "connection refused")

	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	assert.Equal(t, int64(1), setting.MostRecentSalesNumber)
}

func TestSubmit_YaEnviada(t *testing.T) {
	submitter := &fakeSubmitter{result: acceptedResult()}
	f := newSubmitFixture(t, submitter)
	f.addInvoice(t, "inv-1")

	_, err := f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	require.NoError(t, err)

	_, err = f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.Equal(t, 1, submitter.calls, "el segundo intento no debe llegar al transporte")
}

func TestSubmit_NotaCredito(t *testing.T) {
	submitter := &fakeSubmitter{result: acceptedResult()}
	f := newSubmitFixture(t, submitter)

	original := f.addInvoice(t, "inv-original")
	original.SubmissionStatus = entity.SubmissionStatusSubmitted
	original.SubmissionSequence = 42

	nota := f.addInvoice(t, "inv-nc")
	nota.ReturnAgainst = "inv-original"

	out, err := f.uc.Submit(context.Background(), "inv-nc", entity.InvoiceTypeCreditNote)
	require.NoError(t, err)

	assert.Equal(t, entity.SubmissionStatusSubmitted, out.Status)
	require.NotNil(t, submitter.gotBody)
	assert.Equal(t, int64(42), submitter.gotBody.OrgInvoiceNo, "referencia a la secuencia original")
	assert.Equal(t, domainetims.ReceiptTypeRefund, submitter.gotBody.ReceiptTypeCd)
}

func TestSubmit_NotaCreditoSinSecuenciaOriginal(t *testing.T) {
	submitter := &fakeSubmitter{result: acceptedResult()}
	f := newSubmitFixture(t, submitter)

	f.addInvoice(t, "inv-original") // nunca enviada: sin secuencia
	nota := f.addInvoice(t, "inv-nc")
	nota.ReturnAgainst = "inv-original"

	_, err := f.uc.Submit(context.Background(), "inv-nc", entity.InvoiceTypeCreditNote)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, submitter.calls)
}

func TestSubmit_SinSettingActivo(t *testing.T) {
	submitter := &fakeSubmitter{result: acceptedResult()}
	f := newSubmitFixture(t, submitter)
	inv := f.addInvoice(t, "inv-1")
	inv.Company = "Empresa Sin Configurar"

	_, err := f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	assert.Zero(t, submitter.calls)
}

func TestSubmit_SinRutaSembrada(t *testing.T) {
	submitter := &fakeSubmitter{result: acceptedResult()}
	f := newSubmitFixture(t, submitter)
	f.addInvoice(t, "inv-1")
	delete(f.routes.routes, entity.OpSaveSales)

	_, err := f.uc.Submit(context.Background(), "inv-1", entity.InvoiceTypeSales)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
	assert.Zero(t, submitter.calls)

	// Un miss de ruta no debe consumir secuencia.
	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	assert.Equal(t, int64(0), setting.MostRecentSalesNumber)
}

// ──────────────────────────────────────────────────────────────────────────────
// SequenceAllocator
// ──────────────────────────────────────────────────────────────────────────────

func TestSequenceAllocator_PeekNoConsume(t *testing.T) {
	f := newSubmitFixture(t, &fakeSubmitter{})
	allocator := NewSequenceAllocator(f.settings, entity.EnvironmentSandbox, "00")

	next, err := allocator.Peek(context.Background(), "Acme Distributors Ltd", "00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	// Peek repetido devuelve lo mismo: no consume.
	next, err = allocator.Peek(context.Background(), "Acme Distributors Ltd", "00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	n, err := allocator.AllocateNext(context.Background(), "Acme Distributors Ltd", "00")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	next, err = allocator.Peek(context.Background(), "Acme Distributors Ltd", "00")
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestSequenceAllocator_SucursalPorDefecto(t *testing.T) {
	f := newSubmitFixture(t, &fakeSubmitter{})
	allocator := NewSequenceAllocator(f.settings, entity.EnvironmentSandbox, "00")

	// branchID vacío resuelve contra la sucursal por defecto "00".
	next, err := allocator.Peek(context.Background(), "Acme Distributors Ltd", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), next)

	n, err := allocator.AllocateNext(context.Background(), "Acme Distributors Ltd", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	assert.Equal(t, int64(1), setting.MostRecentSalesNumber)
}

func TestSequenceAllocator_AsignacionesConcurrentes(t *testing.T) {
	f := newSubmitFixture(t, &fakeSubmitter{})
	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	setting.MostRecentSalesNumber = 10

	allocator := NewSequenceAllocator(f.settings, entity.EnvironmentSandbox, "00")

	// Dos asignaciones en paralelo sobre la misma tripleta: cada una debe
	// recibir un número distinto y el contador queda en 12.
	results := make(chan int64, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := allocator.AllocateNext(context.Background(), "Acme Distributors Ltd", "00")
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	got := make(map[int64]bool)
	for n := range results {
		got[n] = true
	}
	assert.Equal(t, map[int64]bool{11: true, 12: true}, got)

	setting, _ = f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	assert.Equal(t, int64(12), setting.MostRecentSalesNumber)
}

func TestSequenceAllocator_ContadorSinInicializar(t *testing.T) {
	f := newSubmitFixture(t, &fakeSubmitter{})
	setting, _ := f.settings.FindActive(context.Background(), "Acme Distributors Ltd", entity.EnvironmentSandbox, "00")
	setting.MostRecentSalesNumber = -1

	allocator := NewSequenceAllocator(f.settings, entity.EnvironmentSandbox, "00")

	_, err := allocator.Peek(context.Background(), "Acme Distributors Ltd", "00")
	assert.ErrorIs(t, err, domain.ErrSequenceUnavailable)

	_, err = allocator.AllocateNext(context.Background(), "Acme Distributors Ltd", "00")
	assert.ErrorIs(t, err, domain.ErrSequenceUnavailable)
}
