package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mint-balance/internal/model"
)

const bankStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240301090000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>RUB
<BANKACCTFROM>
<BANKID>044525225
<ACCTID>40817810000000000001
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240201000000[0:GMT]
<DTEND>20240229000000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240205100000[0:GMT]
<TRNAMT>85000.00
<FITID>202402050001
<NAME>ACH CREDIT ACME PAYROLL
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240207183000[0:GMT]
<TRNAMT>-2450.75
<FITID>202402070001
<NAME>POS PURCHASE PEREKRESTOK
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20240210000000[0:GMT]
<TRNAMT>0.00
<FITID>202402100001
<NAME>SERVICE FEE WAIVED
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240212120000[0:GMT]
<TRNAMT>-300.00
<FITID>202402120001
<NAME>PAYMENT
<MEMO>Metro card top-up
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>82249.25
<DTASOF>20240229000000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const cardStatement = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240301090000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000[0:GMT]
<DTEND>20240131000000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-12.99
<FITID>CC0001
<NAME>01/09 STREAMING SERVICE
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240118120000[0:GMT]
<TRNAMT>20.00
<FITID>CC0002
<NAME>REFUND
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-7.01
<DTASOF>20240131000000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantCount int
		wantErr   bool
	}{
		{name: "bank statement skips zero lines", data: bankStatement, wantCount: 3},
		{name: "credit card statement", data: cardStatement, wantCount: 2},
		{name: "leading blank lines", data: "\n\n  " + cardStatement, wantCount: 2},
		{name: "not OFX", data: "date,amount\n2024-01-01,10", wantErr: true},
		{name: "empty input", data: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops, err := NewParser().ParseFile(context.Background(), strings.NewReader(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, ops, tt.wantCount)
		})
	}
}

func TestParseFile_BankOperations(t *testing.T) {
	ops, err := NewParser().ParseFile(context.Background(), strings.NewReader(bankStatement))
	require.NoError(t, err)
	require.Len(t, ops, 3)

	assert.Equal(t, model.ImportedOperation{
		Date:     time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC),
		Note:     "ACME PAYROLL",
		Currency: "RUB",
		Amount:   85000,
		Income:   true,
	}, ops[0])

	assert.False(t, ops[1].Income)
	assert.InDelta(t, 2450.75, ops[1].Amount, 1e-9)
	assert.Equal(t, "PEREKRESTOK", ops[1].Note)

	assert.Equal(t, "Metro card top-up", ops[2].Note)
	assert.InDelta(t, 300.0, ops[2].Amount, 1e-9)
}

func TestParseFile_CardOperations(t *testing.T) {
	ops, err := NewParser().ParseFile(context.Background(), strings.NewReader(cardStatement))
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, "USD", ops[0].Currency)
	assert.Equal(t, "STREAMING SERVICE", ops[0].Note)
	assert.False(t, ops[0].Income)
	assert.True(t, ops[1].Income)
	assert.InDelta(t, 20.0, ops[1].Amount, 1e-9)
}

func TestParseFile_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, strings.NewReader(bankStatement))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDescribe(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		tx   ofxgo.Transaction
		want string
	}{
		{name: "payee wins", tx: ofxgo.Transaction{Name: "POS PURCHASE X", Payee: &ofxgo.Payee{Name: "Corner Bakery"}}, want: "Corner Bakery"},
		{name: "prefix stripped", tx: ofxgo.Transaction{Name: "DEBIT CARD PURCHASE WHOLE FOODS"}, want: "WHOLE FOODS"},
		{name: "generic name uses memo", tx: ofxgo.Transaction{Name: "TRANSFER", Memo: "To savings"}, want: "To savings"},
		{name: "generic name without memo", tx: ofxgo.Transaction{Name: "CREDIT"}, want: "CREDIT"},
		{name: "posting date removed", tx: ofxgo.Transaction{Name: "03/14 PI SHOP"}, want: "PI SHOP"},
		{name: "whitespace trimmed", tx: ofxgo.Transaction{Name: "  TAXI  "}, want: "TAXI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.describe(tt.tx))
		})
	}
}

func TestPreprocess(t *testing.T) {
	p := NewParser()
	in := "\n  <SEVERITY>Warn</SEVERITY>\n<STMTTRN\n<NAME>x"
	assert.Equal(t, "<SEVERITY>WARN</SEVERITY>\n<STMTTRN>\n<NAME>x", p.preprocess(in))
}
