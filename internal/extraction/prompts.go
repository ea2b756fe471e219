package extraction

import (
	"fmt"

	"github.com/dvloznov/finance-ingest/internal/domain"
)

const statementRules = "Rules:\n" +
	"- Include EVERY transaction on the statement.\n" +
	"- \"amount\" is positive for money IN and negative for money OUT.\n" +
	"- If the statement has separate \"paid out\" / \"paid in\" columns, convert to a single signed \"amount\".\n" +
	"- All dates use the ISO format \"YYYY-MM-DD\".\n" +
	"- \"merchant\" is the counterparty name when it can be determined; omit it otherwise.\n" +
	"- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n"

const receiptRules = "Rules:\n" +
	"- List every purchased line item.\n" +
	"- \"date\" uses the ISO format \"YYYY-MM-DD\".\n" +
	"- Omit \"tax_amount\" when the receipt shows no tax.\n" +
	"- Omit \"quantity\" or \"unit_price\" when they are not printed.\n" +
	"- Return ONLY valid raw JSON. Do NOT wrap the response in code fences.\n"

// buildPrompt returns the instruction text for one request. Text content is
// embedded in the prompt; binary content is attached separately.
func buildPrompt(kind SourceKind, ft domain.FileType, c Content) string {
	var head, rules string
	switch kind {
	case KindReceipt:
		head = fmt.Sprintf("Extract receipt data from the following %s content. "+
			"Return the date, merchant name, total amount, tax amount and line items.\n\n", ft)
		rules = receiptRules
	default:
		head = fmt.Sprintf("Extract financial statement data from the following %s content. "+
			"Return the account name, statement period, opening and closing balances and all transactions.\n\n", ft)
		rules = statementRules
	}

	if c.Binary() {
		return head + rules + "\nThe document is attached.\n"
	}
	return head + rules + "\nFile content:\n" + c.Text
}
