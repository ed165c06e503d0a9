package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"frontend/internal/apiclient"
	"frontend/internal/domain"
	"frontend/internal/domain/models"
	"frontend/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// WaybillService renders the delivery waybill PDF a driver carries with an order.
type WaybillService struct {
	Client    *apiclient.Client
	Token     string
	RequestID string
	Now       func() time.Time
	Loader    func(ctx context.Context, orderID string) (waybillData, error)
}

type waybillData struct {
	Order      models.Order
	SenderName string
	DriverName string
}

// Generate renders the waybill of orderID. Only the order's sender, its
// driver or an admin may fetch it; anyone else sees not found.
func (s WaybillService) Generate(ctx context.Context, orderID, viewerID string, admin bool) ([]byte, string, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, "", domain.ValidationError{Field: "id", Msg: "order id is required"}
	}
	data, err := s.load(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if !admin && viewerID != data.Order.SenderID && viewerID != data.Order.DriverID {
		return nil, "", domain.NotFoundError{Resource: "order"}
	}
	if !data.Order.IsAccepted {
		return nil, "", domain.ConflictError{Resource: "order", Msg: "waybill is available once a driver accepted the order"}
	}
	utils.LogEvent(s.RequestID, "waybill", "generate", "order_id="+orderID)
	return buildWaybillPDF(data, s.now())
}

func (s WaybillService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s WaybillService) load(ctx context.Context, orderID string) (waybillData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, orderID)
	}
	var out waybillData
	res := apiclient.Get[models.Order](ctx, s.Client, s.Token, "orders", orderID)
	if !res.OK() {
		return out, res.Err
	}
	out.Order = res.Value

	// Names are decoration; a failed lookup leaves the id on the waybill.
	if u := apiclient.Get[models.User](ctx, s.Client, s.Token, "users", out.Order.SenderID); u.OK() {
		out.SenderName = u.Value.Name
	}
	if out.Order.DriverID != "" {
		if u := apiclient.Get[models.User](ctx, s.Client, s.Token, "users", out.Order.DriverID); u.OK() {
			out.DriverName = u.Value.Name
		}
	}
	return out, nil
}

func buildWaybillPDF(d waybillData, now time.Time) ([]byte, string, error) {
	o := d.Order
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Waybill", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "WAYBILL")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Waybill no  : WB-%s", utils.SafeFilenamePart(o.ID)),
		fmt.Sprintf("Issued      : %s", utils.FormatDateTime(now)),
		fmt.Sprintf("Cargo       : %s", utils.Fallback(o.Title, "-")),
		fmt.Sprintf("Weight      : %s", formatWeight(o.WeightKg)),
		fmt.Sprintf("From        : %s", utils.Fallback(o.FromAddress, "-")),
		fmt.Sprintf("To          : %s", utils.Fallback(o.ToAddress, "-")),
		fmt.Sprintf("Sender      : %s", utils.Fallback(d.SenderName, o.SenderID)),
		fmt.Sprintf("Driver      : %s", utils.Fallback(d.DriverName, utils.Fallback(o.DriverID, "-"))),
		fmt.Sprintf("Ordered     : %s", utils.Fallback(utils.DateOnly(o.CreatedAt), "-")),
		fmt.Sprintf("Status      : %s", o.Status()),
		fmt.Sprintf("Agreed price: %s", formatMoney(o.Price)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(90, 7, "Picked up (driver signature):")
	pdf.Cell(0, 7, "Delivered (recipient signature):")
	pdf.Ln(20)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Keep this waybill with the cargo until delivery is confirmed.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("WAYBILL_%s_%s.pdf", utils.SafeFilenamePart(o.ID), utils.SafeFilenamePart(o.Title))
	return buf.Bytes(), filename, nil
}

func formatWeight(kg float64) string {
	if kg <= 0 {
		return "-"
	}
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", kg), "0"), ".") + " kg"
}

// formatMoney prints v with two decimals and thousands separators.
func formatMoney(v float64) string {
	if v <= 0 {
		return "0.00"
	}
	s := fmt.Sprintf("%.2f", v)
	whole, frac, _ := strings.Cut(s, ".")
	var out []byte
	n := len(whole)
	for i := 0; i < n; i++ {
		out = append(out, whole[i])
		pos := n - i - 1
		if pos > 0 && pos%3 == 0 {
			out = append(out, ',')
		}
	}
	return string(out) + "." + frac
}
