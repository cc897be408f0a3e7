package id3v2

import (
	"strconv"
	"strings"
)

// id3v1Genres is the fixed 0-191 ID3v1 genre table (with the later
// Winamp extensions), reused by ID3v1's single genre byte and by
// ID3v2's TCON/TCO frame's legacy "(NN)" numeric-reference convention,
// per spec.md §4.2 and §4.3.4. This table does not appear in the
// teacher snapshot (id3v1.go is absent there; id3v2metadata.go calls an
// undefined id3v2genre helper), so it is supplemented here from the
// well-known ID3v1 genre list the format itself defines.
var id3v1Genres = [...]string{
	"Blues", "Classic Rock", "Country", "Dance", "Disco", "Funk", "Grunge",
	"Hip-Hop", "Jazz", "Metal", "New Age", "Oldies", "Other", "Pop", "R&B",
	"Rap", "Reggae", "Rock", "Techno", "Industrial", "Alternative", "Ska",
	"Death Metal", "Pranks", "Soundtrack", "Euro-Techno", "Ambient",
	"Trip-Hop", "Vocal", "Jazz+Funk", "Fusion", "Trance", "Classical",
	"Instrumental", "Acid", "House", "Game", "Sound Clip", "Gospel",
	"Noise", "AlternRock", "Bass", "Soul", "Punk", "Space", "Meditative",
	"Instrumental Pop", "Instrumental Rock", "Ethnic", "Gothic",
	"Darkwave", "Techno-Industrial", "Electronic", "Pop-Folk",
	"Eurodance", "Dream", "Southern Rock", "Comedy", "Cult", "Gangsta",
	"Top 40", "Christian Rap", "Pop/Funk", "Jungle", "Native American",
	"Cabaret", "New Wave", "Psychedelic", "Rave", "Showtunes", "Trailer",
	"Lo-Fi", "Tribal", "Acid Punk", "Acid Jazz", "Polka", "Retro",
	"Musical", "Rock & Roll", "Hard Rock", "Folk", "Folk-Rock",
	"National Folk", "Swing", "Fast Fusion", "Bebop", "Latin", "Revival",
	"Celtic", "Bluegrass", "Avantgarde", "Gothic Rock",
	"Progressive Rock", "Psychedelic Rock", "Symphonic Rock", "Slow Rock",
	"Big Band", "Chorus", "Easy Listening", "Acoustic", "Humour",
	"Speech", "Chanson", "Opera", "Chamber Music", "Sonata", "Symphony",
	"Booty Bass", "Primus", "Porn Groove", "Satire", "Slow Jam", "Club",
	"Tango", "Samba", "Folklore", "Ballad", "Power Ballad",
	"Rhythmic Soul", "Freestyle", "Duet", "Punk Rock", "Drum Solo",
	"A Cappella", "Euro-House", "Dance Hall", "Goa", "Drum & Bass",
	"Club-House", "Hardcore", "Terror", "Indie", "BritPop",
	"Negerpunk", "Polsk Punk", "Beat", "Christian Gangsta Rap",
	"Heavy Metal", "Black Metal", "Crossover", "Contemporary Christian",
	"Christian Rock", "Merengue", "Salsa", "Thrash Metal", "Anime",
	"JPop", "Synthpop", "Abstract", "Art Rock", "Baroque", "Bhangra",
	"Big Beat", "Breakbeat", "Chillout", "Downtempo", "Dub", "EBM",
	"Eclectic", "Electro", "Electroclash", "Emo", "Experimental",
	"Garage", "Global", "IDM", "Illbient", "Industro-Goth",
	"Jam Band", "Krautrock", "Leftfield", "Lounge", "Math Rock",
	"New Romantic", "Nu-Breakz", "Post-Punk", "Post-Rock", "Psytrance",
	"Shoegaze", "Space Rock", "Trop Rock", "World Music", "Neoclassical",
	"Audiobook", "Audio Theatre", "Neue Deutsche Welle", "Podcast",
	"Indie Rock", "G-Funk", "Dubstep", "Garage Rock", "Psybient",
}

// GenreName returns the ID3v1 genre name for id, or "" if out of range.
func GenreName(id int) string {
	if id < 0 || id >= len(id3v1Genres) {
		return ""
	}
	return id3v1Genres[id]
}

// GenreIndex returns the ID3v1 genre table index for name (case
// sensitive, exact match), with ok=false when name is not in the table.
func GenreIndex(name string) (int, bool) {
	for i, g := range id3v1Genres {
		if g == name {
			return i, true
		}
	}
	return 0, false
}

// ResolveTCONGenre interprets a TCON/TCO frame value, which may be a
// free-text genre, a bare numeric reference ("17"), a parenthesized
// numeric reference ("(17)"), "(RX)"/"(CR)" special references, or a
// parenthesized reference followed by a free-text refinement
// ("(4)Eurodisco"), per the ID3v2.3 TCON convention (ID3v2.4 deprecates
// the parenthesized form but readers must still accept it for
// interoperability with older taggers).
func ResolveTCONGenre(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw[0] != '(' {
		if n, err := strconv.Atoi(raw); err == nil {
			if name := GenreName(n); name != "" {
				return name
			}
		}
		return raw
	}
	end := strings.IndexByte(raw, ')')
	if end < 0 {
		return raw
	}
	ref := raw[1:end]
	rest := strings.TrimSpace(raw[end+1:])
	switch ref {
	case "RX":
		if rest != "" {
			return rest
		}
		return "Remix"
	case "CR":
		if rest != "" {
			return rest
		}
		return "Cover"
	default:
		if n, err := strconv.Atoi(ref); err == nil {
			if name := GenreName(n); name != "" {
				if rest != "" {
					return rest
				}
				return name
			}
		}
		if rest != "" {
			return rest
		}
		return raw
	}
}
