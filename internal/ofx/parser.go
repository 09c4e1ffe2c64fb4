// Package ofx reads OFX/QFX bank statements into operations ready to record.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/mint-balance/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An SGML opening tag alone on its line with the closing bracket missing.
	openTagRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// notePrefixes are card processor boilerplate stripped from descriptions.
var notePrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"ACH CREDIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
}

// Parser converts statement files into imported operations.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocess repairs formatting mistakes that ofxgo rejects.
func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagRegex.ReplaceAllString(content, "$1>")
}

// ParseFile parses bank and credit card statements. Lines with a zero amount are skipped.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.ImportedOperation, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var ops []model.ImportedOperation
	var statements, skipped int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		converted, n := p.convert(stmt.BankTranList.Transactions, currencyCode(stmt.CurDef))
		ops = append(ops, converted...)
		skipped += n
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		statements++
		converted, n := p.convert(stmt.BankTranList.Transactions, currencyCode(stmt.CurDef))
		ops = append(ops, converted...)
		skipped += n
	}

	slog.Info("parsed OFX file",
		"operations", len(ops),
		"statements", statements,
		"skipped_zero", skipped)

	return ops, nil
}

func (p *Parser) convert(txns []ofxgo.Transaction, currency string) ([]model.ImportedOperation, int) {
	ops := make([]model.ImportedOperation, 0, len(txns))
	skipped := 0
	for _, tx := range txns {
		amount, _ := tx.TrnAmt.Float64()
		if amount == 0 {
			skipped++
			continue
		}
		income := amount > 0
		if amount < 0 {
			amount = -amount
		}
		ops = append(ops, model.ImportedOperation{
			Date:     model.Naive(tx.DtPosted.Time),
			Amount:   amount,
			Income:   income,
			Note:     p.describe(tx),
			Currency: currency,
		})
	}
	return ops, skipped
}

// describe picks the most readable description of a transaction.
func (p *Parser) describe(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if name == "" || isGeneric(name) {
		if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
			name = memo
		}
	}

	upper := strings.ToUpper(name)
	for _, prefix := range notePrefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " posting dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "TRANSFER", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// currencyCode returns the ISO code of a statement currency, empty when unset.
func currencyCode(sym ofxgo.CurrSymbol) string {
	code := sym.String()
	if code == "XXX" {
		return ""
	}
	return code
}
