package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleOFX = `OFXHEADER:100
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
<DTSERVER>20240115120000
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
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>CHECKING-001
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000
<DTEND>20240115120000
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240103120000
<TRNAMT>-15.99
<FITID>TXN-001
<NAME>NETFLIX.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240105120000
<TRNAMT>2500.00
<FITID>TXN-002
<NAME>EMPLOYER PAYROLL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>2484.01
<DTASOF>20240115120000
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	parser := NewParser()

	transactions, err := parser.ParseFile(context.Background(), strings.NewReader(sampleOFX), "user-1")
	require.NoError(t, err)
	require.Len(t, transactions, 2)

	netflix := transactions[0]
	assert.Equal(t, "TXN-001", netflix.ID)
	assert.Equal(t, "user-1", netflix.UserID)
	assert.Equal(t, "CHECKING-001", netflix.AccountID)
	assert.Equal(t, "NETFLIX.COM", netflix.Description)
	assert.Equal(t, "-15.99", netflix.Amount.StringFixed(2))
	assert.Equal(t, 2024, netflix.Date.Year())
	assert.NotEmpty(t, netflix.Hash)

	payroll := transactions[1]
	assert.Equal(t, "TXN-002", payroll.ID)
	assert.Equal(t, "2500.00", payroll.Amount.StringFixed(2))
	assert.True(t, payroll.Amount.IsPositive())
}

func TestParseFileCancelledContext(t *testing.T) {
	parser := NewParser()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := parser.ParseFile(ctx, strings.NewReader(sampleOFX), "user-1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFileInvalidContent(t *testing.T) {
	parser := NewParser()

	_, err := parser.ParseFile(context.Background(), strings.NewReader("not an ofx file"), "user-1")
	assert.Error(t, err)
}

func TestPreprocessOFX(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "fixes mixed-case severity",
			input:    "<SEVERITY>Info</SEVERITY>",
			expected: "<SEVERITY>INFO</SEVERITY>",
		},
		{
			name:     "trims leading whitespace",
			input:    "\n\n  OFXHEADER:100",
			expected: "OFXHEADER:100",
		},
		{
			name:     "adds missing closing bracket",
			input:    "<BANKMSGSRSV1",
			expected: "<BANKMSGSRSV1>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.preprocessOFX(tt.input))
		})
	}
}
