package purchase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"storefront/cart"
	"storefront/model"
	"storefront/render"
	"storefront/session"

	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

// RecordView is a purchase record with display text.
type RecordView struct {
	model.PurchaseRecord
	TotalText string `json:"totalText"`
}

// CommitHandler completes the purchase of the session cart.
func CommitHandler(reg *cart.Registry, wf *Workflow, f *render.Formatter, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := session.FromContext(r.Context())
		rec, err := wf.Commit(r.Context(), reg.For(s.ID), s.CurrentUser())
		if err != nil && !errors.Is(err, cart.ErrPersistenceFailure) {
			cart.WriteError(w, err)
			return
		}

		resp := map[string]interface{}{
			"message": "Purchase completed successfully!",
			"record":  RecordView{PurchaseRecord: *rec, TotalText: f.Money(rec.Total)},
			"state":   wf.State().String(),
		}
		if err != nil {
			// Committed in memory but not saved.
			resp["warning"] = err.Error()
			resp["code"] = cart.CodePersistenceFailure.String()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// HistoryHandler lists the purchases of the logged-in user.
func HistoryHandler(f *render.Formatter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := session.FromContext(r.Context()).CurrentUser()
		if u == nil {
			cart.WriteError(w, cart.ErrNoUser)
			return
		}
		views := make([]RecordView, 0, len(u.Purchases))
		for _, p := range u.Purchases {
			views = append(views, RecordView{PurchaseRecord: p, TotalText: f.Money(p.Total)})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(views)
	}
}

// ExportHistoryHandler downloads the purchases of the logged-in user as a workbook.
func ExportHistoryHandler(log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := session.FromContext(r.Context()).CurrentUser()
		if u == nil {
			cart.WriteError(w, cart.ErrNoUser)
			return
		}

		var buf bytes.Buffer
		if err := WriteHistoryWorkbook(&buf, u.Purchases); err != nil {
			log.Error("history export failed", zap.String("username", u.Username), zap.Error(err))
			http.Error(w, "Failed to create Excel file", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=purchases_%s.xlsx", u.Username))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Write(buf.Bytes())
	}
}

var historyHeaders = []string{"PurchaseID", "Date", "ProductID", "Name", "Category", "UnitPrice", "Quantity", "PurchaseTotal"}

// WriteHistoryWorkbook writes one row per purchased item.
func WriteHistoryWorkbook(buf *bytes.Buffer, purchases []model.PurchaseRecord) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Purchases")
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range historyHeaders {
		headerRow.AddCell().SetValue(h)
	}
	for _, p := range purchases {
		for _, it := range p.Items {
			row := sheet.AddRow()
			row.AddCell().SetValue(p.ID)
			row.AddCell().SetValue(p.Date.Format("2006-01-02 15:04:05"))
			row.AddCell().SetValue(it.ProductID)
			row.AddCell().SetValue(it.Name)
			row.AddCell().SetValue(string(it.Category))
			row.AddCell().SetFloat(it.UnitPrice.InexactFloat64())
			row.AddCell().SetInt(it.Quantity)
			row.AddCell().SetFloat(p.Total.InexactFloat64())
		}
	}

	if err := file.Write(buf); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
