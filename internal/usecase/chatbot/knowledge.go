package chatbot

// Entry is one canned question and its answer.
type Entry struct {
	Topic    string
	Question string
	Answer   string
	Keywords []string
}

var knowledge = []Entry{
	{
		Topic:    "loans",
		Question: "How do I request a loan?",
		Answer:   "Complete KYC verification first, then open Loans > New request and choose an amount between 1,000 and 1,000,000, a purpose, an interest rate between 0.1% and 50% and a term of 1 to 360 months. An administrator reviews every request.",
		Keywords: []string{"request a loan", "apply", "new loan", "borrow"},
	},
	{
		Topic:    "loans",
		Question: "How long does loan approval take?",
		Answer:   "Requests stay pending until an administrator approves or rejects them. You get a live notification as soon as the status changes.",
		Keywords: []string{"approval", "approved", "pending", "how long"},
	},
	{
		Topic:    "kyc",
		Question: "What is KYC and why do I need it?",
		Answer:   "KYC (Know Your Customer) verifies your identity. Upload an ID document from your profile; once an administrator approves it you can request loans.",
		Keywords: []string{"kyc", "verification", "verify identity", "documents"},
	},
	{
		Topic:    "kyc",
		Question: "My KYC was rejected, what now?",
		Answer:   "Check the rejection reason on your profile and upload a new document. Your KYC goes back to pending and will be reviewed again.",
		Keywords: []string{"kyc rejected", "rejected", "reupload", "upload again"},
	},
	{
		Topic:    "nft",
		Question: "What is a loan NFT?",
		Answer:   "When a loan is approved it is minted as an NFT that records the loan terms. The NFT is sent to the borrower's wallet and can be listed on the marketplace.",
		Keywords: []string{"nft", "token", "mint", "minted"},
	},
	{
		Topic:    "marketplace",
		Question: "How do I sell my loan NFT?",
		Answer:   "Open My NFTs, pick the token and list it with a price. Buyers browse the marketplace; once transferred, the listing is marked sold. You can unlist at any time before a transfer.",
		Keywords: []string{"marketplace", "sell", "list", "listing", "buy"},
	},
	{
		Topic:    "repayment",
		Question: "How do repayments work?",
		Answer:   "Active loans follow a fixed monthly schedule. Record a payment against the loan or a specific installment; a payment can never exceed the remaining balance, and the loan completes when the balance reaches zero.",
		Keywords: []string{"repay", "repayment", "installment", "pay back", "schedule"},
	},
	{
		Topic:    "interest",
		Question: "How is interest calculated?",
		Answer:   "Loans use a fixed monthly payment: the annual rate divided by 12 is applied to the outstanding balance each month, and the rest of the payment reduces principal.",
		Keywords: []string{"interest", "rate", "apr", "calculate"},
	},
	{
		Topic:    "wallet",
		Question: "How do I connect my wallet?",
		Answer:   "Choose Connect wallet and sign the one-time message in your wallet. No transaction or gas is needed; the signature only proves you own the address.",
		Keywords: []string{"wallet", "metamask", "connect", "sign"},
	},
	{
		Topic:    "account",
		Question: "How do I deactivate my account?",
		Answer:   "You can deactivate your account from settings once you have no approved or active loans.",
		Keywords: []string{"deactivate", "close account", "delete account"},
	},
}
