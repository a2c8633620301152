package handlers

import "github.com/civicconnect/civic-services/internal/models"

// sampleCenters are shown on the map until real centers are loaded
var sampleCenters = []models.RecyclingCenter{
	{
		ID:                1,
		Name:              "Mumbai E-Waste Collection Center",
		Address:           "Andheri West, Mumbai, Maharashtra 400058",
		Latitude:          19.1197,
		Longitude:         72.8464,
		Phone:             "+91-22-2670-1234",
		Email:             "info@mumbaiecollect.com",
		Website:           "https://mumbaiecollect.com",
		CenterType:        "e_waste_collection",
		AcceptedMaterials: []string{"mobile_phones", "laptops", "computers", "televisions", "batteries"},
		OpeningHours:      weeklyHours("9:00 AM - 6:00 PM", "9:00 AM - 4:00 PM", "Closed"),
		Description:       "Professional e-waste collection and recycling services",
		IsActive:          true,
	},
	{
		ID:                2,
		Name:              "Green Earth Recycling Hub",
		Address:           "Bandra East, Mumbai, Maharashtra 400051",
		Latitude:          19.0596,
		Longitude:         72.8295,
		Phone:             "+91-22-2640-5678",
		Email:             "contact@greenearthmumbai.com",
		Website:           "https://greenearthmumbai.com",
		CenterType:        "recycling_center",
		AcceptedMaterials: []string{"plastic", "paper", "glass", "metal", "textiles"},
		OpeningHours:      weeklyHours("8:00 AM - 7:00 PM", "8:00 AM - 5:00 PM", "9:00 AM - 3:00 PM"),
		Description:       "Comprehensive recycling center for all types of waste",
		IsActive:          true,
	},
	{
		ID:                3,
		Name:              "Juhu Beach Cleanup Station",
		Address:           "Juhu Beach Road, Mumbai, Maharashtra 400049",
		Latitude:          19.0996,
		Longitude:         72.8345,
		Phone:             "+91-22-2660-9012",
		Email:             "cleanup@juhubeach.org",
		Website:           "https://juhubeach.org",
		CenterType:        "drop_off_center",
		AcceptedMaterials: []string{"plastic_bottles", "paper_waste", "glass_bottles", "metal_cans"},
		OpeningHours:      weeklyHours("6:00 AM - 8:00 PM", "6:00 AM - 8:00 PM", "6:00 AM - 8:00 PM"),
		Description:       "Beach cleanup and waste collection point",
		IsActive:          true,
	},
	{
		ID:                4,
		Name:              "Worli Plastic Buyback Center",
		Address:           "Worli Naka, Mumbai, Maharashtra 400018",
		Latitude:          19.0179,
		Longitude:         72.8478,
		Phone:             "+91-22-2490-3456",
		Email:             "buyback@worliplastic.com",
		Website:           "https://worliplastic.com",
		CenterType:        "buyback_center",
		AcceptedMaterials: []string{"plastic_bottles", "plastic_bags", "plastic_containers"},
		OpeningHours:      weeklyHours("7:00 AM - 6:00 PM", "7:00 AM - 5:00 PM", "Closed"),
		Description:       "Plastic waste buyback center with competitive rates",
		IsActive:          true,
	},
	{
		ID:                5,
		Name:              "Colaba Paper Recycling",
		Address:           "Colaba Causeway, Mumbai, Maharashtra 400001",
		Latitude:          18.9217,
		Longitude:         72.8347,
		Phone:             "+91-22-2280-7890",
		Email:             "recycle@colabapaper.com",
		Website:           "https://colabapaper.com",
		CenterType:        "recycling_center",
		AcceptedMaterials: []string{"newspapers", "magazines", "cardboard", "office_paper"},
		OpeningHours:      weeklyHours("9:00 AM - 6:00 PM", "9:00 AM - 4:00 PM", "Closed"),
		Description:       "Specialized paper and cardboard recycling",
		IsActive:          true,
	},
	{
		ID:                6,
		Name:              "Powai Glass Collection Point",
		Address:           "Powai Lake Road, Mumbai, Maharashtra 400076",
		Latitude:          19.1197,
		Longitude:         72.9064,
		Phone:             "+91-22-2570-2345",
		Email:             "glass@powai.org",
		Website:           "https://powai.org",
		CenterType:        "drop_off_center",
		AcceptedMaterials: []string{"glass_bottles", "glass_jars", "broken_glass"},
		OpeningHours:      weeklyHours("8:00 AM - 6:00 PM", "8:00 AM - 5:00 PM", "Closed"),
		Description:       "Glass waste collection and recycling point",
		IsActive:          true,
	},
	{
		ID:                7,
		Name:              "Thane Metal Recycling",
		Address:           "Thane West, Mumbai Metropolitan Region, Maharashtra 400601",
		Latitude:          19.2183,
		Longitude:         72.9781,
		Phone:             "+91-22-2540-6789",
		Email:             "metal@thanerecycle.com",
		Website:           "https://thanerecycle.com",
		CenterType:        "recycling_center",
		AcceptedMaterials: []string{"aluminum_cans", "steel_cans", "copper_wire", "iron_scrap"},
		OpeningHours:      weeklyHours("7:00 AM - 7:00 PM", "7:00 AM - 6:00 PM", "Closed"),
		Description:       "Metal recycling and processing center",
		IsActive:          true,
	},
	{
		ID:                8,
		Name:              "Navi Mumbai Textile Hub",
		Address:           "Vashi, Navi Mumbai, Maharashtra 400703",
		Latitude:          19.076,
		Longitude:         72.9983,
		Phone:             "+91-22-2780-1234",
		Email:             "textile@navimumbai.org",
		Website:           "https://navimumbai.org",
		CenterType:        "recycling_center",
		AcceptedMaterials: []string{"old_clothes", "fabric_scraps", "denim", "cotton_waste"},
		OpeningHours:      weeklyHours("9:00 AM - 6:00 PM", "9:00 AM - 4:00 PM", "Closed"),
		Description:       "Textile waste recycling and upcycling center",
		IsActive:          true,
	},
}

// weeklyHours builds opening hours that are the same Monday to Friday
func weeklyHours(weekday, saturday, sunday string) map[string]string {
	return map[string]string{
		"monday":    weekday,
		"tuesday":   weekday,
		"wednesday": weekday,
		"thursday":  weekday,
		"friday":    weekday,
		"saturday":  saturday,
		"sunday":    sunday,
	}
}
