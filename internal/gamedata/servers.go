package gamedata

// Data center to world mapping. Market data is scoped per world; manual
// update requests address a whole data center at once.
var DataCenters = map[string][]string{
	"Aether":    {"Adamantoise", "Cactuar", "Faerie", "Gilgamesh", "Jenova", "Midgardsormr", "Sargatanas", "Siren"},
	"Primal":    {"Behemoth", "Excalibur", "Exodus", "Famfrit", "Hyperion", "Lamia", "Leviathan", "Ultros"},
	"Crystal":   {"Balmung", "Brynhildr", "Coeurl", "Diabolos", "Goblin", "Malboro", "Mateus", "Zalera"},
	"Chaos":     {"Cerberus", "Louisoix", "Moogle", "Omega", "Ragnarok", "Spriggan"},
	"Light":     {"Lich", "Odin", "Phoenix", "Shiva", "Twintania", "Zodiark"},
	"Elemental": {"Aegis", "Atomos", "Carbuncle", "Garuda", "Gungnir", "Kujata", "Ramuh", "Tonberry", "Typhon", "Unicorn"},
	"Gaia":      {"Alexander", "Bahamut", "Durandal", "Fenrir", "Ifrit", "Ridill", "Tiamat", "Ultima", "Valefor", "Yojimbo", "Zeromus"},
	"Mana":      {"Anima", "Asura", "Belias", "Chocobo", "Hades", "Ixion", "Mandragora", "Masamune", "Pandaemonium", "Shinryu", "Titan"},
}

// DataCenterWorlds returns the worlds of a data center, or nil when the
// name is unknown.
func DataCenterWorlds(dc string) []string {
	return DataCenters[dc]
}

// IsWorld reports whether name is a known world on any data center.
func IsWorld(name string) bool {
	for _, worlds := range DataCenters {
		for _, w := range worlds {
			if w == name {
				return true
			}
		}
	}
	return false
}
