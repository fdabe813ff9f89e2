// =============================================================================
// CSV to Tally Sync - XML Writer Module
// =============================================================================
//
// This module builds the request bodies posted to the Tally import endpoint.
// Two envelopes are produced:
//
//   Ledger creation ("All Masters" import):
//
//   <ENVELOPE>
//     <HEADER>
//       <TALLYREQUEST>Import Data</TALLYREQUEST>
//     </HEADER>
//     <BODY>
//       <IMPORTDATA>
//         <REQUESTDESC>
//           <REPORTNAME>All Masters</REPORTNAME>
//         </REQUESTDESC>
//         <REQUESTDATA>
//           <TALLYMESSAGE xmlns:UDF="TallyUDF">
//             <LEDGER NAME="Acme Corp" RESERVEDNAME="">
//               <PARENT>Sundry Debtors</PARENT>
//               ...
//
//   Sales voucher ("Vouchers" import): same envelope with the company in
//   STATICVARIABLES and a VOUCHER carrying two LEDGERENTRIES.LIST lines.
//
// SAFETY:
//   Every text value and attribute value goes through escapeXML. Ledger
//   names come straight from the input file, so a name such as
//   "</LEDGERNAME><X>" must stay character data and never become markup.
//
// The builder is pure: the same request and options always produce the same
// bytes.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
)

// =============================================================================
// TALLY CONSTANTS
// =============================================================================

const (
	// ParentSundryDebtors is the group for party (customer) ledgers.
	ParentSundryDebtors = "Sundry Debtors"

	// ParentSalesAccounts is the group for income ledgers.
	ParentSalesAccounts = "Sales Accounts"

	reportAllMasters = "All Masters"
	reportVouchers   = "Vouchers"
	invoiceView      = "Invoice Voucher View"

	indent = "  "
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for envelope generation.
type Options struct {
	// CompanyName is written to SVCURRENTCOMPANY on voucher imports.
	CompanyName string

	// Narration is the voucher narration.
	// Default: "Sales Entry"
	Narration string

	// VoucherType is the voucher type name.
	// Default: "Sales"
	VoucherType string
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		Narration:   "Sales Entry",
		VoucherType: "Sales",
	}
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder renders Tally import envelopes.
type Builder struct {
	options Options
}

// NewBuilder creates a Builder. Empty option fields fall back to defaults.
func NewBuilder(options Options) *Builder {
	defaults := DefaultOptions()
	if options.Narration == "" {
		options.Narration = defaults.Narration
	}
	if options.VoucherType == "" {
		options.VoucherType = defaults.VoucherType
	}
	return &Builder{options: options}
}

// Ledger renders a ledger creation request.
//
// Party ledgers go under Sundry Debtors and are flagged as party ledgers;
// income ledgers go under Sales Accounts. Bill-wise tracking and GST are
// always on and the opening balance is always zero.
func (b *Builder) Ledger(req types.LedgerRequest) []byte {
	parent := ParentSalesAccounts
	if req.IsParty() {
		parent = ParentSundryDebtors
	}

	ledger := XMLElement{
		XMLName: xml.Name{Local: "LEDGER"},
		Attributes: []xml.Attr{
			attr("NAME", req.Name),
			attr("RESERVEDNAME", ""),
		},
		Children: []XMLElement{
			createSimpleElement("PARENT", parent),
			createSimpleElement("ISBILLWISEON", "Yes"),
			createSimpleElement("AFFECTSGST", "Yes"),
			createSimpleElement("ISPARTYLEDGER", yesNo(req.IsParty())),
			createSimpleElement("OPENINGBALANCE", "0"),
		},
	}

	return b.render(buildEnvelope(reportAllMasters, nil, ledger))
}

// Voucher renders a two-line sales voucher request.
//
// The party line is deemed positive and carries the negated amount; the
// sales line is not deemed positive and carries the amount as is. The two
// lines always net to zero.
func (b *Builder) Voucher(req types.VoucherRequest) []byte {
	amount := req.Amount.Abs()

	staticVars := &XMLElement{
		XMLName: xml.Name{Local: "STATICVARIABLES"},
		Children: []XMLElement{
			createSimpleElement("SVCURRENTCOMPANY", b.options.CompanyName),
		},
	}

	voucher := XMLElement{
		XMLName: xml.Name{Local: "VOUCHER"},
		Attributes: []xml.Attr{
			attr("VCHTYPE", b.options.VoucherType),
			attr("ACTION", "Create"),
			attr("OBJVIEW", invoiceView),
		},
		Children: []XMLElement{
			createSimpleElement("DATE", req.Date),
			createSimpleElement("NARRATION", b.options.Narration),
			createSimpleElement("VOUCHERTYPENAME", b.options.VoucherType),
			createSimpleElement("PARTYLEDGERNAME", req.PartyLedger),
			createSimpleElement("PERSISTEDVIEW", invoiceView),
			createSimpleElement("ISINVOICE", "Yes"),
			ledgerEntry(req.PartyLedger, true, amount.Neg().String()),
			ledgerEntry(req.SalesLedger, false, amount.String()),
		},
	}

	return b.render(buildEnvelope(reportVouchers, staticVars, voucher))
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildEnvelope wraps a message in the standard import envelope.
func buildEnvelope(reportName string, staticVars *XMLElement, message XMLElement) XMLElement {
	requestDesc := XMLElement{
		XMLName:  xml.Name{Local: "REQUESTDESC"},
		Children: []XMLElement{createSimpleElement("REPORTNAME", reportName)},
	}
	if staticVars != nil {
		requestDesc.Children = append(requestDesc.Children, *staticVars)
	}

	tallyMessage := XMLElement{
		XMLName:    xml.Name{Local: "TALLYMESSAGE"},
		Attributes: []xml.Attr{attr("xmlns:UDF", "TallyUDF")},
		Children:   []XMLElement{message},
	}

	return XMLElement{
		XMLName: xml.Name{Local: "ENVELOPE"},
		Children: []XMLElement{
			{
				XMLName:  xml.Name{Local: "HEADER"},
				Children: []XMLElement{createSimpleElement("TALLYREQUEST", "Import Data")},
			},
			{
				XMLName: xml.Name{Local: "BODY"},
				Children: []XMLElement{
					{
						XMLName: xml.Name{Local: "IMPORTDATA"},
						Children: []XMLElement{
							requestDesc,
							{
								XMLName:  xml.Name{Local: "REQUESTDATA"},
								Children: []XMLElement{tallyMessage},
							},
						},
					},
				},
			},
		},
	}
}

// ledgerEntry builds one LEDGERENTRIES.LIST line.
func ledgerEntry(ledgerName string, deemedPositive bool, amount string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: "LEDGERENTRIES.LIST"},
		Children: []XMLElement{
			createSimpleElement("LEDGERNAME", ledgerName),
			createSimpleElement("ISDEEMEDPOSITIVE", yesNo(deemedPositive)),
			createSimpleElement("AMOUNT", amount),
		},
	}
}

// render writes the document. Tally does not need an XML declaration.
func (b *Builder) render(root XMLElement) []byte {
	var buffer bytes.Buffer

	writeElement(&buffer, root, indent, 0)

	return buffer.Bytes()
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, a := range element.Attributes {
		buffer.WriteString(" ")
		buffer.WriteString(a.Name.Local)
		buffer.WriteString("=\"")
		buffer.WriteString(escapeXML(a.Value))
		buffer.WriteString("\"")
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes markup characters and drops runes XML 1.0 cannot carry.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\n':
			buffer.WriteString("&#xA;")
		case '\r':
			buffer.WriteString("&#xD;")
		case '\t':
			buffer.WriteString("&#x9;")
		default:
			if isXMLChar(r) {
				buffer.WriteRune(r)
			}
		}
	}

	return buffer.String()
}

// isXMLChar reports whether r is allowed by the XML 1.0 Char production.
func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
