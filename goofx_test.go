package goofx_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/rockstardevs/goofx/v2"
)

type FakeReader struct {
	err error
}

func (f FakeReader) Read(p []byte) (int, error) {
	return 0, f.err
}

// firstOnly consumes a single child of the element it decodes.
type firstOnly struct {
	Name string
}

func (f *firstOnly) UnmarshalOFX(d *goofx.Decoder, el *goofx.Element) error {
	child, ok := d.Aggregate(el).Next()
	if ok {
		f.Name = child.Name
	}
	return nil
}

// codeOnly reads the CODE child of the element without an Aggregate cursor.
type codeOnly struct {
	Code string
}

func (c *codeOnly) UnmarshalOFX(d *goofx.Decoder, el *goofx.Element) error {
	if child := el.Child("CODE"); child != nil {
		return d.Decode(child, &c.Code)
	}
	return nil
}

// borrowAll reads every child of the element directly.
type borrowAll []goofx.RawString

func (b *borrowAll) UnmarshalOFX(d *goofx.Decoder, el *goofx.Element) error {
	for _, child := range el.Children {
		s, err := d.Borrow(child)
		if err != nil {
			return err
		}
		*b = append(*b, s)
	}
	return nil
}

// peekOnly records the name of the first child without consuming it.
type peekOnly string

func (p *peekOnly) UnmarshalOFX(d *goofx.Decoder, el *goofx.Element) error {
	name, _ := d.Aggregate(el).Peek()
	*p = peekOnly(name)
	return nil
}

func readTestdata(name string) string {
	data, err := os.ReadFile(filepath.Join("testdata", "v102", name))
	Expect(err).To(Succeed())
	return string(data)
}

func rawPtr(s string) *goofx.RawString {
	r := goofx.RawString(s)
	return &r
}

var _ = Describe("goofx", func() {
	Describe("Parse()", func() {
		Context("when given an empty document", func() {
			It("should leave every message set unset", func() {
				d, err := goofx.Parse(readTestdata("empty.ofx"))
				Expect(err).To(Succeed())
				Expect(d.Header).To(Equal(v102Header()))
				Expect(d.OFX.Signon).To(BeNil())
				Expect(d.OFX.Bank).To(BeEmpty())
				Expect(d.Transactions()).To(BeEmpty())
			})
		})
		Context("when given a signon response with required fields", func() {
			It("should decode the signon response", func() {
				d, err := goofx.Parse(readTestdata("signon_response__required_fields.ofx"))
				Expect(err).To(Succeed())
				Expect(d.Header).To(Equal(v102Header()))
				Expect(d.OFX.Signon).NotTo(BeNil())
				rs := d.OFX.Signon.SignonResponse
				Expect(rs).NotTo(BeNil())
				Expect(rs.Status).To(Equal(goofx.Status{Code: 0, Severity: goofx.SeverityInfo, Message: "OK"}))
				Expect(rs.DTServer).To(BeTemporally("==", time.Date(2022, 7, 18, 0, 41, 44, 0, time.UTC)))
				Expect(rs.Language).To(Equal(goofx.RawString("ENG")))
				Expect(rs.UserKey).To(BeNil())
				Expect(rs.TSKeyExpire).To(BeNil())
				Expect(rs.FI).To(BeNil())
				Expect(rs.Unknown).To(Equal(map[string]goofx.RawString{"INTU.BID": "00015"}))
			})
		})
		Context("when given a signon response with all fields", func() {
			It("should decode the signon response", func() {
				d, err := goofx.Parse(readTestdata("signon_response__all_fields.ofx"))
				Expect(err).To(Succeed())
				rs := d.OFX.Signon.SignonResponse
				Expect(rs.Status).To(Equal(goofx.Status{Code: 0, Severity: goofx.SeverityInfo, Message: "OK"}))
				Expect(rs.DTServer).To(BeTemporally("==", time.Date(2022, 7, 18, 0, 41, 44, 0, time.UTC)))
				Expect(rs.UserKey).To(Equal(rawPtr("ABCDEFG")))
				Expect(rs.TSKeyExpire).NotTo(BeNil())
				Expect(*rs.TSKeyExpire).To(BeTemporally("==", time.Date(2022, 8, 1, 9, 2, 3, 0, time.UTC)))
				Expect(rs.Language).To(Equal(goofx.RawString("ENG")))
				Expect(rs.FI).To(Equal(&goofx.FinancialInstitution{Organization: "Test Bank", OrganizationID: rawPtr("123")}))
				Expect(rs.Unknown).To(Equal(map[string]goofx.RawString{"INTU.BID": "00015"}))
			})
		})
		Context("when given a bank statement", func() {
			var d *goofx.Document
			BeforeEach(func() {
				var err error
				d, err = goofx.Parse(readTestdata("bank_statement.ofx"))
				Expect(err).To(Succeed())
			})
			It("should decode the header", func() {
				h := v102Header()
				h.Security = goofx.SecurityNone
				Expect(d.Header).To(Equal(h))
			})
			It("should decode the statement", func() {
				Expect(d.OFX.Bank).To(HaveLen(1))
				Expect(d.OFX.Bank[0].Statements).To(HaveLen(1))
				trs := d.OFX.Bank[0].Statements[0]
				Expect(trs.TrnUID).To(Equal(goofx.RawString("0")))
				Expect(trs.Status.Severity).To(Equal(goofx.SeverityInfo))
				rs := trs.Statement
				Expect(rs).NotTo(BeNil())
				Expect(rs.Currency).To(Equal(goofx.RawString("USD")))
				Expect(rs.Account).To(Equal(goofx.BankAccount{BankID: "456", AccountID: "789", AccountType: goofx.AccountCreditLine}))
				Expect(rs.TransactionList.Start).To(BeTemporally("==", time.Date(2019, 1, 1, 12, 0, 0, 0, time.UTC)))
				Expect(rs.TransactionList.End).To(BeTemporally("==", time.Date(2019, 1, 31, 12, 0, 0, 0, time.UTC)))
				Expect(rs.LedgerBalance.Amount.Equal(decimal.RequireFromString("315.50"))).To(BeTrue())
				Expect(rs.AvailableBalance).NotTo(BeNil())
				Expect(rs.AvailableBalance.AsOf).To(BeTemporally("==", time.Date(2019, 1, 31, 19, 0, 0, 0, time.UTC)))
				Expect(rs.Unknown).To(Equal(map[string]goofx.RawString{"MKTGINFO": "Thank you"}))
			})
			It("should return the transactions in document order", func() {
				txns := d.Transactions()
				Expect(txns).To(HaveLen(2))
				Expect(txns[0].Type).To(Equal(goofx.DEBIT))
				Expect(txns[0].Posted).To(BeTemporally("==", time.Date(2019, 1, 19, 9, 0, 0, 0, time.UTC)))
				Expect(txns[0].Amount.Equal(decimal.RequireFromString("-20.96"))).To(BeTrue())
				Expect(txns[0].ID).To(Equal(goofx.RawString("20190119090001")))
				Expect(*txns[0].Name).To(Equal("Sample Expense"))
				Expect(txns[0].Memo).To(BeNil())
				Expect(txns[1].Amount.Equal(decimal.RequireFromString("-115.26"))).To(BeTrue())
				Expect(*txns[1].Name).To(Equal("Smith & Sons"))
			})
		})
		Context("when given a malformed document", func() {
			DescribeTable("should return an error of the given kind",
				func(text string, kind error) {
					d, err := goofx.Parse(text)
					Expect(d).To(BeNil())
					Expect(err).To(MatchError(kind))
				},
				Entry("when empty", "", goofx.ErrParseIncomplete),
				Entry("when the header is missing", "<OFX>\n</OFX>\n", goofx.ErrParse),
				Entry("when the body is missing", headerBlock, goofx.ErrParseIncomplete),
				Entry("when the root is not closed", headerBlock+"<OFX><SIGNONMSGSRSV1><SONRS>", goofx.ErrParseIncomplete),
				Entry("when a sibling follows the root", headerBlock+"<OFX></OFX><OFX></OFX>", goofx.ErrTrailingInput),
				Entry("when the root has an unknown child", headerBlock+"<OFX><CREDITCARDMSGSRSV1></CREDITCARDMSGSRSV1></OFX>", goofx.ErrTrailingInput),
				Entry("when a required field is missing", headerBlock+"<OFX><SIGNONMSGSRSV1><SONRS><LANGUAGE>ENG</SONRS></SIGNONMSGSRSV1></OFX>", goofx.ErrDeserialize),
				Entry("when an enum is unknown", headerBlock+"<OFX><SIGNONMSGSRSV1><SONRS><STATUS><CODE>0<SEVERITY>FATAL</STATUS><DTSERVER>20250101<LANGUAGE>ENG</SONRS></SIGNONMSGSRSV1></OFX>", goofx.ErrDeserialize),
			)
		})
	})
	Describe("Unmarshal()", func() {
		It("should return the header and decode the body", func() {
			var v map[string]string
			h, err := goofx.Unmarshal(headerBlock+"<OFX><A>1<B>x &amp; y</OFX>", &v)
			Expect(err).To(Succeed())
			Expect(h).To(Equal(v102Header()))
			Expect(v).To(Equal(map[string]string{"A": "1", "B": "x & y"}))
		})
		It("should borrow strings from the document text", func() {
			var v struct {
				Language goofx.RawString
			}
			text := headerBlock + "<OFX><LANGUAGE>ENG</OFX>"
			_, err := goofx.Unmarshal(text, &v)
			Expect(err).To(Succeed())
			Expect(v.Language).To(Equal(goofx.RawString("ENG")))
			Expect(strings.Contains(text, string(v.Language))).To(BeTrue())
		})
		It("should reject root children left unconsumed", func() {
			var v firstOnly
			_, err := goofx.Unmarshal(headerBlock+"<OFX><A>1<B>2</OFX>", &v)
			Expect(err).To(MatchError(goofx.ErrTrailingInput))
			Expect(err.Error()).To(ContainSubstring("<B>"))
		})
		It("should accept a root fully consumed by an Unmarshaler", func() {
			var v firstOnly
			_, err := goofx.Unmarshal(headerBlock+"<OFX><A>1</OFX>", &v)
			Expect(err).To(Succeed())
			Expect(v.Name).To(Equal("A"))
		})
		Context("when an Unmarshaler reads root children directly", func() {
			It("should reject children it skipped", func() {
				var v codeOnly
				_, err := goofx.Unmarshal(headerBlock+"<OFX><CODE>1<EXTRA>2</OFX>", &v)
				Expect(err).To(MatchError(goofx.ErrTrailingInput))
				Expect(err.Error()).To(ContainSubstring("<EXTRA>"))
			})
			It("should accept a root whose children were all decoded", func() {
				var v codeOnly
				_, err := goofx.Unmarshal(headerBlock+"<OFX><CODE>1</OFX>", &v)
				Expect(err).To(Succeed())
				Expect(v.Code).To(Equal("1"))
			})
			It("should count borrowed children as consumed", func() {
				var v borrowAll
				_, err := goofx.Unmarshal(headerBlock+"<OFX><A>1<B>2</OFX>", &v)
				Expect(err).To(Succeed())
				Expect(v).To(Equal(borrowAll{"1", "2"}))
			})
			It("should not count peeked children as consumed", func() {
				var v peekOnly
				_, err := goofx.Unmarshal(headerBlock+"<OFX><A>1</OFX>", &v)
				Expect(err).To(MatchError(goofx.ErrTrailingInput))
				Expect(string(v)).To(Equal("A"))
			})
		})
		It("should only be strict at the root", func() {
			var v struct {
				Signon *struct {
					Language string
				} `ofx:"SIGNONMSGSRSV1"`
			}
			_, err := goofx.Unmarshal(headerBlock+"<OFX><SIGNONMSGSRSV1><LANGUAGE>ENG<EXTRA>1</SIGNONMSGSRSV1></OFX>", &v)
			Expect(err).To(Succeed())
			Expect(v.Signon.Language).To(Equal("ENG"))
		})
	})
	Describe("NewDocument()", func() {
		Context("when the reader fails", func() {
			It("should return an error", func() {
				r := FakeReader{err: errors.New("fake reader test error")}
				d, err := goofx.NewDocument(&r)
				Expect(err).To(MatchError(goofx.ErrUnknown))
				Expect(err.Error()).To(ContainSubstring("fake reader test error"))
				Expect(d).To(BeNil())
			})
		})
		Context("when given a windows-1252 document", func() {
			It("should decode the text to UTF-8", func() {
				text := headerBlock + "<OFX><BANKMSGSRSV1><STMTTRNRS><TRNUID>1<STATUS><CODE>0<SEVERITY>INFO</STATUS>" +
					"<STMTRS><CURDEF>EUR<BANKACCTFROM><BANKID>1<ACCTID>2<ACCTTYPE>CHECKING</BANKACCTFROM>" +
					"<BANKTRANLIST><DTSTART>20250101<DTEND>20250102" +
					"<STMTTRN><TRNTYPE>POS<DTPOSTED>20250101<TRNAMT>-4.50<FITID>1<NAME>Caf\xe9 \x80</STMTTRN>" +
					"</BANKTRANLIST><LEDGERBAL><BALAMT>0<DTASOF>20250102</LEDGERBAL></STMTRS></STMTTRNRS></BANKMSGSRSV1></OFX>"
				d, err := goofx.NewDocument(strings.NewReader(text))
				Expect(err).To(Succeed())
				txns := d.Transactions()
				Expect(txns).To(HaveLen(1))
				Expect(txns[0].Type).To(Equal(goofx.POS))
				Expect(*txns[0].Name).To(Equal("Café €"))
				Expect(d.OFX.Bank[0].Statements[0].Statement.Account.AccountType).To(Equal(goofx.AccountChecking))
			})
		})
		Context("when given a testdata file", func() {
			It("should parse it", func() {
				f, err := os.Open(filepath.Join("testdata", "v102", "bank_statement.ofx"))
				Expect(err).To(Succeed())
				defer f.Close()
				d, err := goofx.NewDocument(f)
				Expect(err).To(Succeed())
				Expect(d.Transactions()).To(HaveLen(2))
			})
		})
	})
	Describe("Document", func() {
		Describe("Transactions()", func() {
			statement := func(txns ...goofx.Transaction) goofx.StatementTransactionResponse {
				return goofx.StatementTransactionResponse{
					Statement: &goofx.StatementResponse{
						TransactionList: &goofx.TransactionList{Transactions: txns},
					},
				}
			}
			Context("when document has no txns", func() {
				It("should return an empty txn set", func() {
					d := &goofx.Document{}
					Expect(d.Transactions()).To(Equal([]goofx.Transaction{}))
				})
			})
			Context("when a statement has no transaction list", func() {
				It("should skip it", func() {
					d := &goofx.Document{OFX: goofx.Response{Bank: []goofx.BankMessageSet{
						{Statements: []goofx.StatementTransactionResponse{{}, {Statement: &goofx.StatementResponse{}}}},
					}}}
					Expect(d.Transactions()).To(BeEmpty())
				})
			})
			Context("when document has multiple txn sets", func() {
				It("should return all txn sets", func() {
					t1 := goofx.Transaction{Type: goofx.CREDIT, Amount: decimal.New(45, 0)}
					t2 := goofx.Transaction{Type: goofx.DEBIT, Amount: decimal.New(-30, 0)}
					t3 := goofx.Transaction{Type: goofx.FEE, Amount: decimal.New(-1, 0)}
					d := &goofx.Document{OFX: goofx.Response{Bank: []goofx.BankMessageSet{
						{Statements: []goofx.StatementTransactionResponse{statement(t1), statement(t2)}},
						{Statements: []goofx.StatementTransactionResponse{statement(t3)}},
					}}}
					Expect(d.Transactions()).To(Equal([]goofx.Transaction{t1, t2, t3}))
				})
			})
		})
	})
})
