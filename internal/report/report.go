// Package report renders the downloadable plain-text report for a scan.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"blitzscan/internal/models"
	"blitzscan/internal/utils"
	"blitzscan/pkg/parsers"

	"github.com/a-h/templ"
)

const (
	title  = "BLITZ SCAN - REPORTE DE SEGURIDAD"
	footer = "Generado por BLITZ SCAN - Herramienta de Ciberseguridad"
)

var recommendations = []string{
	"Revisar rutas accesibles no autorizadas",
	"Verificar configuración de redirecciones",
	"Implementar controles de acceso apropiados",
	"Ocultar información sensible en headers",
	"Mantener servicios actualizados",
	"Configurar firewalls apropiadamente",
	"Monitorear logs de acceso regularmente",
	"Realizar auditorías de seguridad periódicas",
}

// Filename is the suggested download name for the report of scan.
func Filename(scan *models.Scan) string {
	return fmt.Sprintf("blitz-scan-report-%s.txt", utils.SanitizeForFilesystem(scan.ID))
}

type options struct {
	patterns []parsers.SensitivePattern
}

type Option func(*options)

// WithPatterns sets the catalogue used for the sensitive paths section. Nil
// keeps the built-in one.
func WithPatterns(patterns []parsers.SensitivePattern) Option {
	return func(o *options) {
		o.patterns = patterns
	}
}

// Render returns the report of scan as a templ component.
func Render(scan *models.Scan, opts ...Option) templ.Component {
	return RenderAt(scan, time.Now(), opts...)
}

// RenderAt renders with a fixed clock for the WHOIS expiry badge.
func RenderAt(scan *models.Scan, now time.Time, opts ...Option) templ.Component {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rw := &reportWriter{w: w}
		writeReport(rw, scan, now, o)
		return rw.err
	})
}

// Bytes renders the report into memory.
func Bytes(ctx context.Context, scan *models.Scan, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(scan, opts...).Render(ctx, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reportWriter keeps the first write error so the sections can be written
// without checking every line.
type reportWriter struct {
	w   io.Writer
	err error
}

func (rw *reportWriter) printf(format string, args ...interface{}) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}

func (rw *reportWriter) line(s string) {
	rw.printf("%s\n", s)
}

func writeReport(rw *reportWriter, scan *models.Scan, now time.Time, o *options) {
	rw.line(title)
	rw.line(strings.Repeat("=", 32))
	rw.line("")
	rw.line("Información del Escaneo:")
	rw.printf("- ID: %s\n", scan.ID)
	rw.printf("- URL: %s\n", scan.URL)
	rw.printf("- Tipo: %s\n", strings.ToUpper(string(scan.Kind)))
	rw.printf("- Fecha: %s\n", scan.CreatedAt.UTC().Format("02/01/2006, 15:04:05"))
	rw.printf("- Estado: %s\n", scan.Status)
	if scan.ErrorMessage != "" {
		rw.printf("- Error: %s\n", scan.ErrorMessage)
	}
	rw.line("")

	switch {
	case scan.Kind == models.KindFuzzing && len(scan.Results) > 0:
		writeFuzzSection(rw, scan.Results, o.patterns)
	case scan.Kind == models.KindNmap && scan.Ports != nil:
		writePortSection(rw, scan.Ports)
	case scan.Kind == models.KindWhois && scan.Whois != nil:
		writeWhoisSection(rw, scan.Whois, now)
	default:
		rw.line("Resultados del Análisis:")
		rw.line("No hay resultados disponibles")
	}
	if scan.ParseStatus == models.ParseStatusFailed {
		rw.line("")
		rw.line("Nota: la respuesta del backend no pudo interpretarse.")
	}

	rw.line("")
	rw.line("Recomendaciones:")
	for i, rec := range recommendations {
		rw.printf("%d. %s\n", i+1, rec)
	}
	rw.line("")
	rw.line("---")
	rw.printf("%s", footer)
}

func writeFuzzSection(rw *reportWriter, results []models.FuzzResultRecord, patterns []parsers.SensitivePattern) {
	rw.line("Resultados Encontrados:")
	for _, r := range results {
		rw.line("")
		rw.printf("- Ruta: %s\n", r.PathFound)
		rw.printf("  Estado HTTP: %d\n", r.HTTPStatus)
		rw.printf("  Tamaño: %d bytes\n", r.ResponseSize)
		rw.printf("  Tiempo de respuesta: %.3fs\n", r.ResponseTime)
		rw.printf("  Es redirección: %s\n", yesNo(r.IsRedirect))
		rw.printf("  Headers: %s\n", r.Headers)
	}

	summary := SummarizeFuzz(results)
	rw.line("")
	rw.line("Resumen:")
	rw.printf("- Total de rutas encontradas: %d\n", summary.Total)
	rw.printf("- Rutas accesibles (200): %d\n", summary.OK)
	rw.printf("- Redirecciones: %d\n", summary.Redirects)
	rw.printf("- Errores 4xx: %d\n", summary.ClientErrors)

	if findings := parsers.FindSensitive(results, patterns); len(findings) > 0 {
		rw.line("")
		rw.line("Rutas sensibles:")
		for _, f := range findings {
			rw.printf("- %s %s [%d] %s (%s)\n",
				parsers.GetSeverityEmoji(f.Pattern.Severity),
				f.Record.PathFound,
				f.Record.HTTPStatus,
				f.Pattern.Description,
				f.Pattern.Category,
			)
		}
	}
}

func writePortSection(rw *reportWriter, ports *models.PortScanResult) {
	rw.line("Resultados del Análisis:")
	if len(ports.OpenPorts) == 0 {
		rw.line("No se encontraron puertos abiertos")
		return
	}

	counts := map[string]int{}
	for _, p := range ports.OpenPorts {
		risk := RiskLevel(p.Service, p.Port)
		counts[risk]++
		rw.printf("- %s %s", p.Port, p.Service)
		if p.Version != "" {
			rw.printf(" %s", p.Version)
		}
		rw.printf(" (Riesgo: %s, Categoría: %s)\n", risk, ServiceCategory(p.Service))
	}

	rw.line("")
	rw.line("Resumen:")
	rw.printf("- Puertos abiertos: %d\n", len(ports.OpenPorts))
	rw.printf("- Riesgo crítico: %d\n", counts[RiskCritical])
	rw.printf("- Riesgo alto: %d\n", counts[RiskHigh])
	rw.printf("- Riesgo bajo: %d\n", counts[RiskLow])
}

func writeWhoisSection(rw *reportWriter, record *models.DomainLookupRecord, now time.Time) {
	rw.line("Resultados del Análisis:")
	rw.printf("- Dominio: %s\n", orNotAvailable(record.DomainName))
	rw.printf("- Registrador: %s\n", orNotAvailable(record.Registrar))
	rw.printf("- Fecha de creación: %s\n", orNotAvailable(record.CreationDate))
	rw.printf("- Fecha de expiración: %s", orNotAvailable(record.ExpirationDate))
	if badge := ExpiryBadge(record.ExpirationDate, now); badge != "" {
		rw.printf(" (%s)", badge)
	}
	rw.line("")
	rw.printf("- Última actualización: %s\n", orNotAvailable(record.UpdatedDate))
	rw.printf("- Registrante: %s\n", orNotAvailable(record.Registrant.Name))
	rw.printf("- País: %s\n", orNotAvailable(record.Registrant.Country))
	if len(record.NameServers) == 0 {
		rw.printf("- Servidores DNS: %s\n", parsers.NotAvailable)
		return
	}
	rw.line("- Servidores DNS:")
	for _, ns := range record.NameServers {
		rw.printf("  - %s\n", ns)
	}
}

// FuzzSummary counts the headline numbers of a fuzzing run.
type FuzzSummary struct {
	Total        int
	OK           int
	Redirects    int
	ClientErrors int
}

func SummarizeFuzz(results []models.FuzzResultRecord) FuzzSummary {
	s := FuzzSummary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.HTTPStatus == 200:
			s.OK++
		case r.HTTPStatus >= 400 && r.HTTPStatus < 500:
			s.ClientErrors++
		}
		if r.IsRedirect {
			s.Redirects++
		}
	}
	return s
}

func orNotAvailable(v string) string {
	if strings.TrimSpace(v) == "" {
		return parsers.NotAvailable
	}
	return v
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
