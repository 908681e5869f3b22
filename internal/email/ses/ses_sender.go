package ses

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"finrecon/internal/domain"
	"finrecon/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesSender) SendVendorFollowUp(ctx context.Context, toEmail string, group domain.VendorGroup, returnPeriod string) error {
	subject := fmt.Sprintf("GST reconciliation follow-up for %s (%s)", group.VendorGSTIN, returnPeriod)
	htmlBody := buildFollowUpHTML(group, returnPeriod)
	textBody := buildFollowUpText(group, returnPeriod)

	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildFollowUpText(group domain.VendorGroup, returnPeriod string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", vendorDisplayName(group))
	fmt.Fprintf(&b, "Our GST reconciliation for return period %s found %d discrepancy(ies) against your GSTIN %s:\n\n",
		returnPeriod, group.Discrepancies, group.VendorGSTIN)
	for _, r := range group.Results {
		switch r.Status {
		case domain.StatusPROnly:
			if r.PRInvoice != nil {
				fmt.Fprintf(&b, "- Invoice %s (value %s) appears in our purchase register but not in GSTR-2B. Please confirm it was reported in your GSTR-1.\n",
					r.PRInvoice.InvoiceNo, r.PRInvoice.InvoiceValue.StringFixed(2))
			}
		case domain.StatusGSTR2BOnly:
			if r.GSTR2BInvoice != nil {
				fmt.Fprintf(&b, "- Invoice %s (value %s) was reported in GSTR-2B but we have no purchase record. Please share the invoice copy.\n",
					r.GSTR2BInvoice.InvoiceNo, r.GSTR2BInvoice.InvoiceValue.StringFixed(2))
			}
		default:
			fmt.Fprintf(&b, "- Invoice %s differs between our records and GSTR-2B (total difference %s). Please verify the reported amounts.\n",
				invoiceNo(&r), r.TotalDiff.StringFixed(2))
		}
	}
	fmt.Fprintf(&b, "\nTax at risk pending resolution: %s\n\nRegards,\nAccounts Team", group.AtRiskTax.StringFixed(2))
	return b.String()
}

func buildFollowUpHTML(group domain.VendorGroup, returnPeriod string) string {
	var rows strings.Builder
	for _, r := range group.Results {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding:6px;border:1px solid #ddd;">%s</td><td style="padding:6px;border:1px solid #ddd;">%s</td><td style="padding:6px;border:1px solid #ddd;text-align:right;">%s</td></tr>`,
			invoiceNo(&r), r.Status, r.TotalDiff.StringFixed(2)))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">GST reconciliation follow-up</h2>
  <p>Dear %s,</p>
  <p>Our reconciliation for return period <strong>%s</strong> found <strong>%d</strong> discrepancy(ies) against GSTIN <strong>%s</strong>:</p>
  <table style="border-collapse:collapse;width:100%%;">
    <tr><th style="padding:6px;border:1px solid #ddd;text-align:left;">Invoice</th><th style="padding:6px;border:1px solid #ddd;text-align:left;">Status</th><th style="padding:6px;border:1px solid #ddd;text-align:right;">Difference</th></tr>
    %s
  </table>
  <p>Tax at risk pending resolution: <strong>%s</strong></p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Sent by the accounts reconciliation system.</p>
</body>
</html>`, vendorDisplayName(group), returnPeriod, group.Discrepancies, group.VendorGSTIN, rows.String(), group.AtRiskTax.StringFixed(2))
}

func vendorDisplayName(group domain.VendorGroup) string {
	if group.VendorName != "" {
		return group.VendorName
	}
	return group.VendorGSTIN
}

func invoiceNo(r *domain.MatchResult) string {
	if r.PRInvoice != nil {
		return r.PRInvoice.InvoiceNo
	}
	if r.GSTR2BInvoice != nil {
		return r.GSTR2BInvoice.InvoiceNo
	}
	return ""
}
