package id3v2

// legacyToModern maps the ID3v2.2 3-letter frame IDs listed below to
// their ID3v2.3/2.4 4-letter successors (CRM has none and maps to
// itself; v2.2 IDs not listed have no entry), generalized from teacher's id3v2metadata.go
// frameNames table (which only covered the handful of fields teacher's
// Metadata interface exposed) to the full frame family spec.md §4.3.4
// names.
var legacyToModern = map[string]string{
	"TT1": "TIT1", "TT2": "TIT2", "TT3": "TIT3",
	"TP1": "TPE1", "TP2": "TPE2", "TP3": "TPE3", "TP4": "TPE4",
	"TAL": "TALB", "TCM": "TCOM", "TCO": "TCON", "TCR": "TCOP",
	"TDA": "TDAT", "TYE": "TYER", "TIM": "TIME", "TRD": "TRDA",
	"TRK": "TRCK", "TPA": "TPOS", "TPB": "TPUB", "TEN": "TENC",
	"TSS": "TSSE", "TBP": "TBPM", "TKE": "TKEY", "TLA": "TLAN",
	"TLE": "TLEN", "TMT": "TMED", "TOA": "TOPE", "TOF": "TOFN",
	"TOL": "TOLY", "TOT": "TOAL", "TOR": "TORY", "TXT": "TEXT",
	"TXX": "TXXX", "TSI": "TSIZ", "TSA": "TSOA", "TSP": "TSOP",
	"TST": "TSOT", "TS2": "TSO2", "TSC": "TSOC",
	"WAF": "WOAF", "WAR": "WOAR", "WAS": "WOAS", "WCM": "WCOM",
	"WCP": "WCOP", "WPB": "WPUB", "WXX": "WXXX",
	"COM": "COMM", "IPL": "IPLS", "MCI": "MCDI", "ETC": "ETCO",
	"MLL": "MLLT", "STC": "SYTC", "ULT": "USLT", "SLT": "SYLT",
	"RVA": "RVAD", "EQU": "EQUA", "REV": "RVRB",
	"PIC": "APIC", "GEO": "GEOB", "CNT": "PCNT", "POP": "POPM",
	"BUF": "RBUF", "CRM": "CRM", "CRA": "AENC", "LNK": "LINK",
	"POS": "POSS", "UFI": "UFID", "USR": "USER", "OWN": "OWNE",
}

var modernToLegacy = invert(legacyToModern)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

// NormalizeID maps any v2.2 3-letter ID to its v2.3/2.4 equivalent; IDs
// already 4 letters (or with no known mapping) pass through unchanged.
func NormalizeID(id string) string {
	if len(id) == 3 {
		if v, ok := legacyToModern[id]; ok {
			return v
		}
	}
	return id
}

// LegacyID maps a modern 4-letter ID back to its v2.2 3-letter form, for
// rendering a tag as v2.2; returns ok=false when no legacy ID exists
// (frames introduced after v2.2, e.g. TDRC, have no 3-letter form and
// must be dropped or kept as TXXX when downgrading).
func LegacyID(id string) (string, bool) {
	v, ok := modernToLegacy[id]
	return v, ok
}
