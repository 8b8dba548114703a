package payment_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	paymentApplication "github.com/rcarvalho-pb/payment_checkout-go/internal/application/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/event"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/domain/payment"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/gateway/mercadopago"
	"github.com/rcarvalho-pb/payment_checkout-go/internal/infrastructure/persistence/inmemory"
)

const validCPF = "529.982.247-25"

type fakeGateway struct {
	calls      []mercadopago.CheckoutRequest
	checkoutFn func(mercadopago.CheckoutRequest) (*mercadopago.CheckoutArtifact, error)
}

func (f *fakeGateway) Checkout(_ context.Context, in mercadopago.CheckoutRequest) (*mercadopago.CheckoutArtifact, error) {
	f.calls = append(f.calls, in)
	return f.checkoutFn(in)
}

type fakeRecorder struct {
	recorded []event.Event
}

func (f *fakeRecorder) Record(evt event.Event) error {
	f.recorded = append(f.recorded, evt)
	return nil
}

// failingRepo counts calls and fails every operation with err.
type failingRepo struct {
	err   error
	calls int
}

func (f *failingRepo) Create(context.Context, *payment.Payment) error {
	f.calls++
	return f.err
}

func (f *failingRepo) Update(context.Context, string, payment.Patch) (*payment.Payment, error) {
	f.calls++
	return nil, f.err
}

func (f *failingRepo) FindByID(context.Context, string) (*payment.Payment, error) {
	f.calls++
	return nil, f.err
}

func (f *failingRepo) FindMany(context.Context, payment.Filter) ([]*payment.Payment, error) {
	f.calls++
	return nil, f.err
}

type noopLogger struct{}

func (n *noopLogger) Info(string, map[string]any)  {}
func (n *noopLogger) Warn(string, map[string]any)  {}
func (n *noopLogger) Error(string, map[string]any) {}

func okGateway() *fakeGateway {
	return &fakeGateway{
		checkoutFn: func(in mercadopago.CheckoutRequest) (*mercadopago.CheckoutArtifact, error) {
			return &mercadopago.CheckoutArtifact{
				ID:                "pref-1",
				InitPoint:         "https://mp.example/checkout?pref_id=pref-1",
				ExternalReference: in.ExternalReference,
			}, nil
		},
	}
}

func newService(repo payment.Repository, gw *fakeGateway) (*paymentApplication.Service, *fakeRecorder, *metrics.Counters) {
	recorder := &fakeRecorder{}
	counters := &metrics.Counters{}
	return &paymentApplication.Service{
		Repo:     repo,
		Gateway:  gw,
		Recorder: recorder,
		Logger:   &noopLogger{},
		Metrics:  counters,
		NewID:    func() string { return "pay-1" },
	}, recorder, counters
}

func createInput(method string, amount int64) paymentApplication.CreateInput {
	return paymentApplication.CreateInput{
		TaxpayerID:  validCPF,
		Description: "Sound system",
		Amount:      decimal.NewFromInt(amount),
		Method:      method,
		Status:      "PENDING",
	}
}

func TestCreate_DirectTransfer_ShouldPersistPendingWithoutGatewayCall(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	gw := okGateway()
	svc, recorder, counters := newService(repo, gw)

	out := svc.Create(context.Background(), createInput("DIRECT_TRANSFER", 100))

	require.Equal(t, paymentApplication.KindCreated, out.Kind)
	require.Equal(t, paymentApplication.MsgCreated, out.Message)
	require.Empty(t, gw.calls)

	view := out.Data.(paymentApplication.View)
	require.Equal(t, "pay-1", view.ID)
	require.Equal(t, "52998224725", view.TaxpayerID)
	require.Equal(t, payment.StatusPending, view.Status)

	stored, err := repo.FindByID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, payment.StatusPending, stored.Status)
	require.Empty(t, stored.ExternalReference)

	require.Len(t, recorder.recorded, 1)
	require.Equal(t, event.PaymentCreated, recorder.recorded[0].Type)
	require.Equal(t, uint64(1), counters.PaymentsCreated)
}

func TestCreate_LegacyPixName_ShouldMapToDirectTransfer(t *testing.T) {
	gw := okGateway()
	svc, _, _ := newService(inmemory.NewPaymentRepository(), gw)

	out := svc.Create(context.Background(), createInput("PIX", 100))

	require.Equal(t, paymentApplication.KindCreated, out.Kind)
	require.Equal(t, payment.MethodDirectTransfer, out.Data.(paymentApplication.View).PaymentMethod)
	require.Empty(t, gw.calls)
}

func TestCreate_Card_ShouldCallGatewayOnceWithQuantityOneAndAmount(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	gw := okGateway()
	svc, _, _ := newService(repo, gw)

	in := createInput("CARD", 0)
	in.Amount = decimal.RequireFromString("150.25")
	out := svc.Create(context.Background(), in)

	require.Equal(t, paymentApplication.KindCreated, out.Kind)
	require.Equal(t, paymentApplication.MsgCheckoutCreated, out.Message)

	require.Len(t, gw.calls, 1)
	require.Equal(t, 1, gw.calls[0].Quantity)
	require.True(t, in.Amount.Equal(gw.calls[0].UnitPrice))
	require.Equal(t, "pay-1", gw.calls[0].ExternalReference)
	require.Equal(t, "52998224725", gw.calls[0].TaxpayerID)

	view := out.Data.(paymentApplication.CheckoutView)
	require.Equal(t, "pref-1", view.Checkout.ID)
	require.Equal(t, payment.StatusPending, view.Payment.Status)

	stored, err := repo.FindByID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, payment.StatusPending, stored.Status)
	require.Equal(t, "pay-1", stored.ExternalReference)
}

func TestCreate_CardGatewayFailure_ShouldKeepPendingAndReportGatewayFailed(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	gw := &fakeGateway{
		checkoutFn: func(mercadopago.CheckoutRequest) (*mercadopago.CheckoutArtifact, error) {
			return nil, &mercadopago.Error{
				StatusCode: http.StatusBadRequest,
				Payload:    json.RawMessage(`{"message":"invalid access token"}`),
			}
		},
	}
	svc, _, counters := newService(repo, gw)

	out := svc.Create(context.Background(), createInput("CREDIT_CARD", 100))

	require.Equal(t, paymentApplication.KindGatewayFailed, out.Kind)
	require.Equal(t, paymentApplication.MsgCheckoutFailed, out.Message)
	require.Len(t, gw.calls, 1)

	failure := out.Data.(paymentApplication.CheckoutFailureView)
	require.JSONEq(t, `{"message":"invalid access token"}`, string(failure.Error))
	require.Equal(t, "pay-1", failure.Payment.ID)

	stored, err := repo.FindByID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, payment.StatusPending, stored.Status)
	require.Equal(t, uint64(1), counters.CheckoutsFailed)
}

func TestCreate_NonPositiveAmount_ShouldFailBeforeStoreAndGateway(t *testing.T) {
	for _, amount := range []int64{0, -10} {
		repo := &failingRepo{err: errors.New("must not be called")}
		gw := okGateway()
		svc, _, _ := newService(repo, gw)

		out := svc.Create(context.Background(), createInput("CARD", amount))

		require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
		require.Contains(t, out.Data.(map[string]string), "amount")
		require.Zero(t, repo.calls)
		require.Empty(t, gw.calls)
	}
}

func TestCreate_InvalidTaxpayerAndMethod_ShouldReportEveryField(t *testing.T) {
	repo := &failingRepo{err: errors.New("must not be called")}
	svc, _, _ := newService(repo, okGateway())

	out := svc.Create(context.Background(), paymentApplication.CreateInput{
		TaxpayerID:  "12345678901",
		Description: " ",
		Amount:      decimal.NewFromInt(10),
		Method:      "BOLETO",
		Status:      "PAID",
	})

	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
	fields := out.Data.(map[string]string)
	require.Contains(t, fields, "cpf")
	require.Contains(t, fields, "description")
	require.Contains(t, fields, "paymentMethod")
	require.Contains(t, fields, "status")
	require.Zero(t, repo.calls)
}

func TestCreate_StorageFailure_ShouldNotCallGateway(t *testing.T) {
	repo := &failingRepo{err: errors.New("disk full")}
	gw := okGateway()
	svc, _, _ := newService(repo, gw)

	out := svc.Create(context.Background(), createInput("CARD", 100))

	require.Equal(t, paymentApplication.KindStorageFailed, out.Kind)
	require.Empty(t, gw.calls)
}

func TestCreate_Duplicate_ShouldReportConflict(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())

	require.Equal(t, paymentApplication.KindCreated, svc.Create(context.Background(), createInput("PIX", 100)).Kind)

	out := svc.Create(context.Background(), createInput("PIX", 100))
	require.Equal(t, paymentApplication.KindConflict, out.Kind)
	require.Equal(t, paymentApplication.MsgAlready, out.Message)
}

func TestUpdate_ShouldApplyPartialFields(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	desc := "new description"
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Description: &desc})

	require.Equal(t, paymentApplication.KindUpdated, out.Kind)
	require.Equal(t, "new description", out.Data.(paymentApplication.View).Description)
}

func TestUpdate_StatusToPaid_ShouldRecordSettlement(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, recorder, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	paid := "PAID"
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &paid})

	require.Equal(t, paymentApplication.KindUpdated, out.Kind)
	require.Equal(t, payment.StatusPaid, out.Data.(paymentApplication.View).Status)
	require.Equal(t, event.PaymentPaid, recorder.recorded[len(recorder.recorded)-1].Type)
}

func TestUpdate_ShouldRejectBackwardTransition(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	paid, pending, failed := "PAID", "PENDING", "FAIL"
	require.Equal(t, paymentApplication.KindUpdated, svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &paid}).Kind)

	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &pending})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)

	out = svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &failed})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)

	stored, _ := repo.FindByID(context.Background(), "pay-1")
	require.Equal(t, payment.StatusPaid, stored.Status)
}

func TestUpdate_SameTerminalStatus_ShouldBeNoOp(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	paid := "PAID"
	svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &paid})
	writes := repo.Writes()

	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &paid})
	require.Equal(t, paymentApplication.KindUpdated, out.Kind)
	require.Equal(t, writes, repo.Writes())
}

func TestUpdate_TaxpayerIsImmutable(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())

	cpf := "11144477735"
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{TaxpayerID: &cpf})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
	require.Contains(t, out.Data.(map[string]string), "cpf")
}

func TestUpdate_Missing_ShouldReportNotFound(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())

	desc := "x"
	require.Equal(t, paymentApplication.KindNotFound, svc.Update(context.Background(), "nope", paymentApplication.UpdateInput{Description: &desc}).Kind)

	paid := "PAID"
	require.Equal(t, paymentApplication.KindNotFound, svc.Update(context.Background(), "nope", paymentApplication.UpdateInput{Status: &paid}).Kind)
}

func TestUpdate_EmptyBody_ShouldFailValidation(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())
	require.Equal(t, paymentApplication.KindValidationFailed, svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{}).Kind)
}

func TestFindByID(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	out := svc.FindByID(context.Background(), "pay-1")
	require.Equal(t, paymentApplication.KindFound, out.Kind)
	require.Equal(t, "pay-1", out.Data.(paymentApplication.View).ID)

	out = svc.FindByID(context.Background(), "missing")
	require.Equal(t, paymentApplication.KindNotFound, out.Kind)
	require.False(t, out.OK())
}

func TestFindByID_StorageFailure(t *testing.T) {
	svc, _, _ := newService(&failingRepo{err: errors.New("locked")}, okGateway())
	require.Equal(t, paymentApplication.KindStorageFailed, svc.FindByID(context.Background(), "pay-1").Kind)
}

func TestFindByFilter_NoMatches_ShouldBeNotFoundWithEmptyList(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())

	out := svc.FindByFilter(context.Background(), paymentApplication.FilterInput{TaxpayerID: validCPF, Method: "PIX"})

	require.Equal(t, paymentApplication.KindNotFound, out.Kind)
	require.NotNil(t, out.Data)
	require.Empty(t, out.Data.([]paymentApplication.View))
}

func TestFindByFilter_ShouldReturnMatches(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	ids := []string{"pay-a", "pay-b"}
	svc.NewID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	svc.Create(context.Background(), createInput("PIX", 100))
	svc.Create(context.Background(), createInput("CARD", 100))

	out := svc.FindByFilter(context.Background(), paymentApplication.FilterInput{TaxpayerID: validCPF, Method: "DIRECT_TRANSFER"})

	require.Equal(t, paymentApplication.KindFound, out.Kind)
	views := out.Data.([]paymentApplication.View)
	require.Len(t, views, 1)
	require.Equal(t, "pay-a", views[0].ID)
}

func TestFindByFilter_StorageFailureIsDistinctFromNotFound(t *testing.T) {
	svc, _, _ := newService(&failingRepo{err: errors.New("locked")}, okGateway())

	out := svc.FindByFilter(context.Background(), paymentApplication.FilterInput{TaxpayerID: validCPF})
	require.Equal(t, paymentApplication.KindStorageFailed, out.Kind)
}

func TestFindByFilter_UnknownMethod(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())

	out := svc.FindByFilter(context.Background(), paymentApplication.FilterInput{Method: "BOLETO"})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
}

func TestUpdate_MethodCannotSwitchIntoCheckout(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	card := "CARD"
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Method: &card})

	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
	require.Contains(t, out.Data.(map[string]string), "paymentMethod")

	stored, err := repo.FindByID(context.Background(), "pay-1")
	require.NoError(t, err)
	require.Equal(t, payment.MethodDirectTransfer, stored.Method)
	require.Empty(t, stored.ExternalReference)
}

func TestUpdate_CardKeepsMethodAndAmount(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("CARD", 100))

	pix := "PIX"
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Method: &pix})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)

	amount := decimal.NewFromInt(250)
	out = svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Amount: &amount})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
	require.Contains(t, out.Data.(map[string]string), "amount")

	stored, _ := repo.FindByID(context.Background(), "pay-1")
	require.Equal(t, payment.MethodCard, stored.Method)
	require.Equal(t, "pay-1", stored.ExternalReference)
	require.True(t, decimal.NewFromInt(100).Equal(stored.Amount))
}

func TestUpdate_SettledPaymentKeepsAmount(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	paid := "PAID"
	svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Status: &paid})

	amount := decimal.NewFromInt(5)
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Amount: &amount})
	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)

	desc := "still editable"
	out = svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Description: &desc})
	require.Equal(t, paymentApplication.KindUpdated, out.Kind)
}

func TestUpdate_PendingDirectTransferAmountCanChange(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	amount := decimal.RequireFromString("120.50")
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Amount: &amount})

	require.Equal(t, paymentApplication.KindUpdated, out.Kind)
	require.True(t, amount.Equal(out.Data.(paymentApplication.View).Amount))
}

func TestCreate_AmountWithMoreThanTwoDecimalsFailsValidation(t *testing.T) {
	for _, raw := range []string{"0.001", "10.005"} {
		repo := &failingRepo{err: errors.New("must not be called")}
		svc, _, _ := newService(repo, okGateway())

		in := createInput("PIX", 0)
		in.Amount = decimal.RequireFromString(raw)
		out := svc.Create(context.Background(), in)

		require.Equal(t, paymentApplication.KindValidationFailed, out.Kind, raw)
		require.Equal(t, "must have at most two decimal places", out.Data.(map[string]string)["amount"], raw)
		require.Zero(t, repo.calls, raw)
	}
}

func TestCreate_TrailingZerosAreNotExtraDecimals(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())

	in := createInput("PIX", 0)
	in.Amount = decimal.RequireFromString("10.500")
	out := svc.Create(context.Background(), in)

	require.Equal(t, paymentApplication.KindCreated, out.Kind)
}

func TestUpdate_AmountWithMoreThanTwoDecimalsFailsValidation(t *testing.T) {
	svc, _, _ := newService(inmemory.NewPaymentRepository(), okGateway())

	amount := decimal.RequireFromString("10.005")
	out := svc.Update(context.Background(), "pay-1", paymentApplication.UpdateInput{Amount: &amount})

	require.Equal(t, paymentApplication.KindValidationFailed, out.Kind)
	require.Contains(t, out.Data.(map[string]string), "amount")
}

func TestFindByFilter_TaxpayerWithoutDigitsIsRejected(t *testing.T) {
	repo := inmemory.NewPaymentRepository()
	svc, _, _ := newService(repo, okGateway())
	svc.Create(context.Background(), createInput("PIX", 100))

	for _, cpf := range []string{"abc", "123", "12345678901"} {
		out := svc.FindByFilter(context.Background(), paymentApplication.FilterInput{TaxpayerID: cpf})

		require.Equal(t, paymentApplication.KindValidationFailed, out.Kind, cpf)
		require.Contains(t, out.Data.(map[string]string), "cpf", cpf)
	}
}
