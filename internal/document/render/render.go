// Package render lays out certificates as plain text. Byte-level PDF
// formatting happens outside this module.
package render

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"swiftpolicy/internal/document/models"
)

const dateLayout = "02 January 2006"

var certificateTemplate = template.Must(template.New("certificate").Funcs(template.FuncMap{
	"date": func(t time.Time) string { return t.Format(dateLayout) },
}).Parse(`CERTIFICATE OF MOTOR INSURANCE
==============================

Certificate number:  {{.DocumentID}}
Policy number:       {{.PolicyID}}
Policyholder:        {{.HolderName}}

Vehicle registration: {{.VRM}}
Vehicle:             {{.Make}} {{.Model}} ({{.VehicleClass}})
Cover:               {{.Cover.Label}}
Term:                {{.Duration}}
Premium:             GBP {{.Premium.StringFixed 2}}

Effective from:      {{date .ValidFrom}}
Expires:             {{date .ValidTo}}
Issued:              {{date .IssuedAt}}

I hereby certify that the policy to which this certificate relates satisfies
the requirements of the relevant law applicable in Great Britain.

Verification token:
{{.Token}}
`))

// Certificate renders c. The token must already be set.
func Certificate(c models.Certificate) ([]byte, error) {
	if c.Token == "" {
		return nil, fmt.Errorf("certificate %s has no verification token", c.DocumentID)
	}
	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, c); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
