package proof

import "strings"

// allowWords is the vocabulary consulted before merging or splitting
// tokens. It only needs to cover the words that show up in business
// prose; anything outside it is treated as a non-word.
var allowWords = map[string]struct{}{}

// splitStoplist holds words that contain a connector or a shorter word
// and must never be split apart.
var splitStoplist = map[string]struct{}{
	"therefore": {}, "before": {}, "after": {}, "whereas": {},
	"moreover": {}, "however": {}, "without": {}, "within": {},
	"another": {}, "together": {}, "everywhere": {},
}

// connectors are short words frequently swallowed into neighbouring
// tokens by copy-paste and PDF round-trips.
var connectors = []string{"and", "the", "as", "of", "to", "in", "on"}

func init() {
	for _, w := range strings.Fields(wordlistRaw) {
		allowWords[w] = struct{}{}
	}
	for w := range splitStoplist {
		allowWords[w] = struct{}{}
	}
	for _, w := range connectors {
		allowWords[w] = struct{}{}
	}
}

// isRealWord reports whether the token is in the vocabulary,
// case-insensitively.
func isRealWord(token string) bool {
	if token == "" {
		return false
	}
	_, ok := allowWords[strings.ToLower(token)]
	return ok
}

// bothRealWords reports whether both sides of a candidate merge are
// already valid words, in which case the merge is rejected.
func bothRealWords(left, right string) bool {
	return isRealWord(left) && isRealWord(right)
}

const wordlistRaw = `
a about above access account across additional address after again against
agree agreement all allow almost along already also although always amount
analysis and annual any apply approach april are area around as ask at
august available average back base based basis be because been begin being
below benefit best better between bid both budget build business but buy by
call can cannot capacity case cash change charge check claim clause client
close come commit commitment company complete compliance concern condition
confidential confirm consider contact contain content continue contract
control cost could cover create credit current customer data date day deal
december decide decision deliver delivery department depend design detail
develop development did different direct discount discuss do document does
done down draft due during each early effort either email end engage
engagement ensure estimate even every example except exchange exclude
expect expense experience external fee few final finance financial find
first fixed flat follow for forecast form format forward frame friday from
full fund further general get give global go good great group grow growth
guarantee had handle has have he help her here high him his hold hour how
hundred if implement important improve in include income increase indeed
inform information initial instead interest internal into invoice is issue
it item its january july june just keep key know large last late later lead
least legal less let level like limit limited line list local long look low
main make manage management manager many march margin market markup
material may me media meet meeting member might million model monday money
month monthly more most much must my name near need needed needs never new
next no none not note notice november now number october of off offer
office on once one ongoing only open operation option or order other our
out over own owner page paid part partner party pay payment pending people
per percent period person phase phone place plan please point policy
position possible present price pricing prior priority private process
produce product project propose proposal provide public purchase purpose
quality quarter question quote rate rather reach read ready reason receive
recent record reduce reference regard region register regular reject
related release relevant remain report request require reserve resource
response result return revenue review right risk role run same saturday
scale schedule scope second section secure see select sell send september
service set settle several shall share she sheet should show side sign
since single site size small so social some soon source special specific
spend staff stage standard start state statement status still stock
strategy structure subject submit success such summary sunday supplier
supply support sure system take target task tax team term test than that
the their them then there these they third this those three through
thursday time title to today together total trade transfer travel tuesday
turn two type under unit unlimited until up update upon use user valid
value vendor version very via view volume want was way we web wednesday
week weekly well were what when where which while who whole why will with
work working would write year yes yet you your zero
`
