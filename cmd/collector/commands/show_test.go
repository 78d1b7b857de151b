package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rickgao/active-strike/internal/model"
)

func TestRenderRows(t *testing.T) {
	var buf bytes.Buffer
	renderRows(&buf, []model.StrikeRecord{
		{
			Date:       "2024-01-15",
			Time:       "09:15:00",
			AssetPrice: model.MustValue("22000"),
			CE:         model.MustValue("120"),
			FetchedAt:  "2024-01-15 09:16:02",
		},
	})

	out := buf.String()
	for _, want := range []string{"ASSET PRICE", "09:15:00", "22000", "120", "2024-01-15 09:16:02"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
