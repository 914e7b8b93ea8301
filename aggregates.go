package goofx

import (
	"time"

	"github.com/shopspring/decimal"
)

//revive:disable:exported

// Severity is a status severity, OFX Spec v1.6 3.1.5.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarn
	SeverityError
)

var severityVariants = []string{"Info", "Warn", "Error"}

func (Severity) Variants() []string { return severityVariants }
func (s Severity) String() string   { return variantName(severityVariants, int(s)) }

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// TransactionType is a transaction type as per the OFX Spec 2.2 Section 11.4.4.3
// https://www.ofx.net/downloads/OFX%202.2.pdf
type TransactionType string

const (
	// Common Transaction Types
	DEBIT  TransactionType = "DEBIT"
	CREDIT TransactionType = "CREDIT"
	// Uncommon Transaction Types
	INTEREST      TransactionType = "INT"
	DIVIDEND      TransactionType = "DIV"
	FEE           TransactionType = "FEE"
	SERVICECHARGE TransactionType = "SRVCHG"
	DEPOSIT       TransactionType = "DEP"
	ATM           TransactionType = "ATM"
	POS           TransactionType = "POS"
	TRANSFER      TransactionType = "XFER"
	CHECK         TransactionType = "CHECK"
	PAYMENT       TransactionType = "PAYMENT"
	CASH          TransactionType = "CASH"
	DIRECTDEPOSIT TransactionType = "DIRECTDEP"
	DIRECTDEBIT   TransactionType = "DIRECTDEBIT"
	REPEATPAYMENT TransactionType = "REPEATPMT"
	OTHER         TransactionType = "OTHER"
)

var transactionTypeVariants = []string{
	string(DEBIT), string(CREDIT), string(INTEREST), string(DIVIDEND), string(FEE),
	string(SERVICECHARGE), string(DEPOSIT), string(ATM), string(POS), string(TRANSFER),
	string(CHECK), string(PAYMENT), string(CASH), string(DIRECTDEPOSIT), string(DIRECTDEBIT),
	string(REPEATPAYMENT), string(OTHER),
}

func (TransactionType) Variants() []string { return transactionTypeVariants }

// AccountType is a bank account type, OFX Spec v1.6 11.3.1.1.
type AccountType int

const (
	AccountChecking AccountType = iota
	AccountSavings
	AccountMoneyMarket
	AccountCreditLine
	AccountCD
)

var accountTypeVariants = []string{"CHECKING", "SAVINGS", "MONEYMRKT", "CREDITLINE", "CD"}

func (AccountType) Variants() []string { return accountTypeVariants }
func (a AccountType) String() string   { return variantName(accountTypeVariants, int(a)) }

func (a AccountType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Status is the <STATUS> aggregate, OFX Spec v1.6 3.1.5.
type Status struct {
	Code     int32
	Severity Severity
	Message  RawString `ofx:",optional"`
}

// FinancialInstitution is the <FI> aggregate of a signon response.
type FinancialInstitution struct {
	Organization   RawString  `ofx:"ORG"`
	OrganizationID *RawString `ofx:"FID"`
}

// SignonResponse is the <SONRS> aggregate, OFX Spec v1.6 2.5.1.2. Leaves not modelled here,
// such as INTU.BID, are kept in Unknown.
type SignonResponse struct {
	Status      Status
	DTServer    time.Time
	UserKey     *RawString
	TSKeyExpire *time.Time
	Language    RawString
	FI          *FinancialInstitution
	Unknown     map[string]RawString `ofx:",flatten"`
}

// SignonMessageSet is the <SIGNONMSGSRSV1> message set.
type SignonMessageSet struct {
	SignonResponse *SignonResponse `ofx:"SONRS"`
}

type Transaction struct {
	Type        TransactionType `ofx:"TRNTYPE"`
	Posted      time.Time       `ofx:"DTPOSTED"`
	User        *time.Time      `ofx:"DTUSER"`
	Available   *time.Time      `ofx:"DTAVAIL"`
	Amount      decimal.Decimal `ofx:"TRNAMT"`
	ID          RawString       `ofx:"FITID"`
	CheckNumber *RawString      `ofx:"CHECKNUM"`
	Name        *string         `ofx:"NAME"`
	Memo        *string         `ofx:"MEMO"`
}

type TransactionList struct {
	Start        time.Time     `ofx:"DTSTART"`
	End          time.Time     `ofx:"DTEND"`
	Transactions []Transaction `ofx:"STMTTRN"`
}

type Balance struct {
	Amount decimal.Decimal `ofx:"BALAMT"`
	AsOf   time.Time       `ofx:"DTASOF"`
}

type BankAccount struct {
	BankID      RawString   `ofx:"BANKID"`
	BranchID    *RawString  `ofx:"BRANCHID"`
	AccountID   RawString   `ofx:"ACCTID"`
	AccountType AccountType `ofx:"ACCTTYPE"`
	AccountKey  *RawString  `ofx:"ACCTKEY"`
}

type StatementResponse struct {
	Currency         RawString            `ofx:"CURDEF"`
	Account          BankAccount          `ofx:"BANKACCTFROM"`
	TransactionList  *TransactionList     `ofx:"BANKTRANLIST"`
	LedgerBalance    Balance              `ofx:"LEDGERBAL"`
	AvailableBalance *Balance             `ofx:"AVAILBAL"`
	Unknown          map[string]RawString `ofx:",flatten"`
}

type StatementTransactionResponse struct {
	TrnUID    RawString          `ofx:"TRNUID"`
	Status    Status             `ofx:"STATUS"`
	Statement *StatementResponse `ofx:"STMTRS"`
}

// BankMessageSet is the <BANKMSGSRSV1> message set.
type BankMessageSet struct {
	Statements []StatementTransactionResponse `ofx:"STMTTRNRS"`
}

// Response is the <OFX> root of a response document.
type Response struct {
	Signon *SignonMessageSet `ofx:"SIGNONMSGSRSV1"`
	Bank   []BankMessageSet  `ofx:"BANKMSGSRSV1"`
}
