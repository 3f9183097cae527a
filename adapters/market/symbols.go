package market

// symbolToName maps NIFTY 50 symbols to company names. The feed returns
// bare symbols; names are a presentation convenience only.
var symbolToName = map[string]string{
	"ADANIENT":   "Adani Enterprises Ltd.",
	"ADANIPORTS": "Adani Ports and SEZ Ltd.",
	"APOLLOHOSP": "Apollo Hospitals Enterprise Ltd.",
	"ASIANPAINT": "Asian Paints Ltd.",
	"AXISBANK":   "Axis Bank Ltd.",
	"BAJAJ-AUTO": "Bajaj Auto Ltd.",
	"BAJAJFINSV": "Bajaj Finserv Ltd.",
	"BAJFINANCE": "Bajaj Finance Ltd.",
	"BEL":        "Bharat Electronics Ltd.",
	"BHARTIARTL": "Bharti Airtel Ltd.",
	"BPCL":       "Bharat Petroleum Corporation Ltd.",
	"BRITANNIA":  "Britannia Industries Ltd.",
	"CIPLA":      "Cipla Ltd.",
	"COALINDIA":  "Coal India Ltd.",
	"DRREDDY":    "Dr. Reddy's Laboratories Ltd.",
	"EICHERMOT":  "Eicher Motors Ltd.",
	"GRASIM":     "Grasim Industries Ltd.",
	"HCLTECH":    "HCL Technologies Ltd.",
	"HDFCBANK":   "HDFC Bank Ltd.",
	"HDFCLIFE":   "HDFC Life Insurance Company Ltd.",
	"HEROMOTOCO": "Hero MotoCorp Ltd.",
	"HINDALCO":   "Hindalco Industries Ltd.",
	"HINDUNILVR": "Hindustan Unilever Ltd.",
	"ICICIBANK":  "ICICI Bank Ltd.",
	"INDUSINDBK": "IndusInd Bank Ltd.",
	"INFY":       "Infosys Ltd.",
	"ITC":        "ITC Ltd.",
	"JSWSTEEL":   "JSW Steel Ltd.",
	"KOTAKBANK":  "Kotak Mahindra Bank Ltd.",
	"LT":         "Larsen & Toubro Ltd.",
	"M&M":        "Mahindra & Mahindra Ltd.",
	"MARUTI":     "Maruti Suzuki India Ltd.",
	"NESTLEIND":  "Nestle India Ltd.",
	"NTPC":       "NTPC Ltd.",
	"ONGC":       "Oil and Natural Gas Corporation Ltd.",
	"POWERGRID":  "Power Grid Corporation of India Ltd.",
	"RELIANCE":   "Reliance Industries Ltd.",
	"SBILIFE":    "SBI Life Insurance Company Ltd.",
	"SBIN":       "State Bank of India",
	"SHRIRAMFIN": "Shriram Finance Ltd.",
	"SUNPHARMA":  "Sun Pharmaceutical Industries Ltd.",
	"TATACONSUM": "Tata Consumer Products Ltd.",
	"TATAMOTORS": "Tata Motors Ltd.",
	"TATASTEEL":  "Tata Steel Ltd.",
	"TCS":        "Tata Consultancy Services Ltd.",
	"TECHM":      "Tech Mahindra Ltd.",
	"TITAN":      "Titan Company Ltd.",
	"TRENT":      "Trent Ltd.",
	"ULTRACEMCO": "UltraTech Cement Ltd.",
	"WIPRO":      "Wipro Ltd.",
}

// CompanyName resolves a symbol to its display name
func CompanyName(symbol string) string {
	if name, ok := symbolToName[symbol]; ok {
		return name
	}
	return "Unknown Company"
}
