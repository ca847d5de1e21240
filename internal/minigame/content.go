package minigame

var pairIcons = []string{
	"🍕", "🚀", "🎸", "🐙", "🌵", "🎲", "🦊", "🍩", "⚽", "🎈", "🦉", "🍉", "🧩", "🌙", "🐢", "🎧",
}

// sortSets are listed in their target order.
var sortSets = [][]string{
	{"Mercury", "Venus", "Earth", "Mars", "Jupiter", "Saturn"},
	{"Mouse", "Cat", "Dog", "Horse", "Elephant", "Blue whale"},
	{"Printing press", "Steam engine", "Telephone", "Airplane", "Internet", "Smartphone"},
	{"Second", "Minute", "Hour", "Day", "Week", "Month"},
	{"Byte", "Kilobyte", "Megabyte", "Gigabyte", "Terabyte", "Petabyte"},
}

type snapSet struct {
	categories [2]SnapCategory
	items      [2][]string
}

var snapSets = []snapSet{
	{
		categories: [2]SnapCategory{{Id: "fruit", Label: "Fruit", Icon: "🍎"}, {Id: "vegetable", Label: "Vegetable", Icon: "🥕"}},
		items: [2][]string{
			{"Apple", "Banana", "Mango", "Cherry", "Kiwi", "Peach", "Plum"},
			{"Carrot", "Potato", "Onion", "Cabbage", "Leek", "Radish", "Beet"},
		},
	},
	{
		categories: [2]SnapCategory{{Id: "mammal", Label: "Mammal", Icon: "🐻"}, {Id: "bird", Label: "Bird", Icon: "🐦"}},
		items: [2][]string{
			{"Bat", "Dolphin", "Otter", "Koala", "Camel", "Hedgehog", "Lynx"},
			{"Penguin", "Ostrich", "Owl", "Parrot", "Swan", "Robin", "Crow"},
		},
	},
	{
		categories: [2]SnapCategory{{Id: "string", Label: "Strings", Icon: "🎻"}, {Id: "wind", Label: "Wind", Icon: "🎺"}},
		items: [2][]string{
			{"Violin", "Cello", "Harp", "Guitar", "Banjo", "Ukulele", "Sitar"},
			{"Flute", "Trumpet", "Oboe", "Clarinet", "Tuba", "Bassoon", "Saxophone"},
		},
	},
}

var oddGroups = [][]string{
	{"Red", "Blue", "Green", "Yellow", "Purple"},
	{"Paris", "Rome", "Madrid", "Berlin", "Vienna"},
	{"Piano", "Drums", "Violin", "Flute", "Guitar"},
	{"Tennis", "Chess", "Football", "Hockey", "Rugby"},
	{"Oak", "Pine", "Birch", "Maple", "Willow"},
	{"Gold", "Iron", "Copper", "Silver", "Zinc"},
	{"Lion", "Tiger", "Leopard", "Jaguar", "Cheetah"},
}
