package review

import (
	"fmt"
	"time"

	"github.com/bryanwahyu/chestlogic/internal/domain/caselog"
)

// ExportKey names the archive object for a snapshot of table taken at t.
func ExportKey(table string, t time.Time) string {
	if table == "" {
		table = caselog.DefaultTable
	}
	return fmt.Sprintf("exports/%s-%s.json", table, t.UTC().Format("20060102T150405Z"))
}
