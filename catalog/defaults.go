package catalog

// Hotpot is the built-in hot-pot shop catalog.
func Hotpot() Products {
	return Products{
		{ID: 1, Name: "白菜 1/4カット", Category: "野菜", Tags: []string{"鍋", "冬野菜"}, Description: "鍋料理に欠かせない甘みのある白菜。"},
		{ID: 2, Name: "長ねぎ 2本", Category: "野菜", Tags: []string{"鍋", "薬味"}, Description: "鍋に入れると風味が増す長ねぎ。"},
		{ID: 3, Name: "しめじ 1パック", Category: "きのこ", Tags: []string{"鍋"}, Description: "鍋の具材として使いやすいしめじ。"},
		{ID: 4, Name: "えのき茸 100g", Category: "きのこ", Tags: []string{"鍋"}, Description: "鍋の定番食材、えのき茸。"},
		{ID: 10, Name: "豚バラ肉 200g", Category: "肉", Tags: []string{"鍋", "豚"}, Description: "寄せ鍋やキムチ鍋に合う豚バラ肉。"},
		{ID: 11, Name: "鶏もも肉 300g", Category: "肉", Tags: []string{"鍋", "水炊き"}, Description: "水炊きに最適な鶏もも肉。"},
		{ID: 20, Name: "木綿豆腐 1丁", Category: "豆腐", Tags: []string{"鍋"}, Description: "鍋にしっかり崩れず入れられる木綿豆腐。"},
		{ID: 21, Name: "絹豆腐 1丁", Category: "豆腐", Tags: []string{"鍋"}, Description: "柔らかい食感の絹豆腐。"},
		{ID: 22, Name: "しらたき 200g", Category: "麺類", Tags: []string{"鍋"}, Description: "鍋のかさ増しにちょうどいいしらたき。"},
		{ID: 30, Name: "寄せ鍋スープ 醤油味", Category: "スープ", Tags: []string{"鍋"}, Description: "寄せ鍋用の醤油ベーススープ。"},
		{ID: 31, Name: "キムチ鍋の素", Category: "スープ", Tags: []string{"鍋", "キムチ"}, Description: "ピリ辛のキムチ味鍋の素。"},
		{ID: 32, Name: "豆乳鍋スープ", Category: "スープ", Tags: []string{"鍋", "豆乳"}, Description: "まろやかな豆乳味の鍋スープ。"},
		{ID: 40, Name: "鍋用 中華麺", Category: "麺類", Tags: []string{"鍋", "しめ"}, Description: "鍋のしめに使える中華麺。"},
		{ID: 41, Name: "鍋の〆 雑炊セット", Category: "米", Tags: []string{"鍋", "しめ"}, Description: "出汁が効いた雑炊が作れるセット。"},
	}
}

// Breakfast is the small breakfast catalog used for free-text queries.
func Breakfast() Products {
	return Products{
		{ID: 123, Name: "低脂肪ヨーグルト いちご味", Category: "ヨーグルト", Tags: []string{"低脂肪", "朝食", "ダイエット"}, Description: "朝に食べやすい低脂肪タイプのストロベリーヨーグルトです。"},
		{ID: 124, Name: "プレーンヨーグルト", Category: "ヨーグルト", Tags: []string{"朝食"}, Description: "シンプルな無糖タイプのプレーンヨーグルトです。"},
		{ID: 200, Name: "いちごジャム", Category: "ジャム", Tags: []string{"パン", "スイーツ"}, Description: "パンやヨーグルトのトッピングに合う甘いいちごジャムです。"},
	}
}

// DefaultRecipes is the built-in recipe catalog.
func DefaultRecipes() Recipes {
	return Recipes{
		{Name: "寄せ鍋", Genre: "和風", Ingredients: []string{"白菜", "長ねぎ", "豆腐", "豚肉", "しめじ", "しらたき"}},
		{Name: "キムチ鍋", Genre: "中華", Ingredients: []string{"白菜", "豚肉", "豆腐", "キムチの素", "長ねぎ"}},
		{Name: "水炊き", Genre: "和風", Ingredients: []string{"鶏肉", "白菜", "豆腐", "長ねぎ", "昆布"}},
		{Name: "味噌汁", Genre: "和風", Ingredients: []string{"味噌", "豆腐", "わかめ", "だし", "長ねぎ"}},
		{Name: "豚汁", Genre: "和風", Ingredients: []string{"豚肉", "大根", "にんじん", "味噌", "ごぼう", "長ねぎ"}},
		{Name: "ペペロンチーノ", Genre: "洋風", Ingredients: []string{"スパゲッティ", "にんにく", "オリーブオイル", "唐辛子", "塩"}},
		{Name: "トマトパスタ", Genre: "洋風", Ingredients: []string{"スパゲッティ", "トマトソース", "にんにく", "オリーブオイル"}},
		{Name: "麻婆豆腐", Genre: "中華", Ingredients: []string{"豆腐", "豚ひき肉", "ねぎ", "豆板醤", "甜麺醤"}},
	}
}
