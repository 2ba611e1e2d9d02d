package scan

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"blitzscan/internal/models"
	"blitzscan/internal/report"
	"blitzscan/pkg/parsers"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by the history command.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Summary is the one-line view of a scan used by tables and YAML output.
type Summary struct {
	ID      string    `json:"id" yaml:"id"`
	Type    string    `json:"scan_type" yaml:"scan_type"`
	URL     string    `json:"url" yaml:"url"`
	Status  string    `json:"status" yaml:"status"`
	Date    time.Time `json:"timestamp" yaml:"timestamp"`
	Results string    `json:"results" yaml:"results"`
}

func Summarize(scan models.Scan) Summary {
	return Summary{
		ID:      scan.ID,
		Type:    string(scan.Kind),
		URL:     scan.URL,
		Status:  string(scan.Status),
		Date:    scan.CreatedAt.UTC(),
		Results: resultCount(&scan),
	}
}

func resultCount(scan *models.Scan) string {
	switch {
	case scan.Status == models.StatusFailed:
		return "-"
	case scan.Kind == models.KindNmap && scan.Ports != nil:
		return fmt.Sprintf("%d puertos", len(scan.Ports.OpenPorts))
	case scan.Kind == models.KindWhois && scan.Whois != nil:
		if scan.Whois.HasData() {
			return "registro"
		}
		return "sin datos"
	default:
		return fmt.Sprintf("%d rutas", len(scan.Results))
	}
}

// WriteHistory writes scans to w in the given format. Table output goes
// through pterm.
func WriteHistory(w io.Writer, scans []models.Scan, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(scans)
	case FormatYAML:
		summaries := make([]Summary, 0, len(scans))
		for _, scan := range scans {
			summaries = append(summaries, Summarize(scan))
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(summaries); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable, "":
		return writeHistoryTable(w, scans)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func writeHistoryTable(w io.Writer, scans []models.Scan) error {
	if len(scans) == 0 {
		_, err := fmt.Fprintln(w, "No hay escaneos en el historial")
		return err
	}

	tableData := pterm.TableData{{"ID", "Tipo", "URL", "Estado", "Fecha", "Resultados"}}
	for _, scan := range scans {
		s := Summarize(scan)
		tableData = append(tableData, []string{
			s.ID, strings.ToUpper(s.Type), s.URL, s.Status, s.Date.Format("02/01/2006 15:04"), s.Results,
		})
	}

	return pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(tableData).
		WithWriter(w).
		Render()
}

// PrintScan renders the outcome of a single scan to the terminal. Fuzzing
// paths are classified with patterns, or the built-in catalogue when nil.
func PrintScan(scan *models.Scan, patterns []parsers.SensitivePattern) {
	pterm.DefaultSection.Println(fmt.Sprintf("%s  %s", strings.ToUpper(string(scan.Kind)), scan.URL))
	pterm.Info.Printfln("ID: %s", scan.ID)

	if scan.Status == models.StatusFailed {
		pterm.Error.Println(scan.ErrorMessage)
		return
	}
	if scan.ParseStatus == models.ParseStatusFailed {
		pterm.Warning.Println("La respuesta del backend no pudo interpretarse")
	}

	var tableData pterm.TableData
	switch scan.Kind {
	case models.KindFuzzing:
		tableData = fuzzTable(scan.Results, patterns)
	case models.KindNmap:
		tableData = portTable(scan.Ports)
	case models.KindWhois:
		tableData = whoisTable(scan.Whois)
	}
	if len(tableData) <= 1 {
		pterm.Info.Println("No hay resultados disponibles")
		return
	}
	if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(tableData).Render(); err != nil {
		pterm.Error.Println(err.Error())
	}
}

func fuzzTable(results []models.FuzzResultRecord, patterns []parsers.SensitivePattern) pterm.TableData {
	tableData := pterm.TableData{{"Ruta", "Estado", "Tamaño", "Hallazgo"}}
	for _, r := range results {
		finding := ""
		if pattern, ok := parsers.ClassifyPath(r.PathFound, patterns); ok {
			finding = fmt.Sprintf("%s %s", parsers.GetSeverityEmoji(pattern.Severity), pattern.Description)
		}
		tableData = append(tableData, []string{
			r.PathFound, strconv.Itoa(r.HTTPStatus), strconv.FormatInt(r.ResponseSize, 10), finding,
		})
	}
	return tableData
}

func portTable(ports *models.PortScanResult) pterm.TableData {
	tableData := pterm.TableData{{"Puerto", "Servicio", "Versión", "Riesgo"}}
	if ports == nil {
		return tableData
	}
	for _, p := range ports.OpenPorts {
		tableData = append(tableData, []string{
			p.Port, p.Service, p.Version, report.RiskLevel(p.Service, p.Number()),
		})
	}
	return tableData
}

func whoisTable(record *models.DomainLookupRecord) pterm.TableData {
	tableData := pterm.TableData{{"Campo", "Valor"}}
	if record == nil || !record.HasData() {
		return tableData
	}
	expiration := orDash(record.ExpirationDate)
	if badge := report.ExpiryBadge(record.ExpirationDate, time.Now()); badge != "" {
		expiration += " (" + badge + ")"
	}
	return append(tableData,
		[]string{"Dominio", orDash(record.DomainName)},
		[]string{"Registrador", orDash(record.Registrar)},
		[]string{"Creación", orDash(record.CreationDate)},
		[]string{"Expiración", expiration},
		[]string{"Titular", orDash(record.Registrant.Name)},
		[]string{"País", orDash(record.Registrant.Country)},
		[]string{"Servidores DNS", orDash(strings.Join(record.NameServers, ", "))},
	)
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
