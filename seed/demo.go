package seed

import (
	"fmt"

	"github.com/studieren/match_back/models"
)

const portraitURL = "https://randomuser.me/api/portraits/women/%d.jpg"

func portraits(from, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, fmt.Sprintf(portraitURL, from+i))
	}
	return out
}

// DemoProfiles 五个固定的演示资料，每次调用返回新副本
func DemoProfiles() []models.Profile {
	return []models.Profile{
		{
			ID:           1,
			Name:         "Ananya Sharma",
			Age:          26,
			Height:       "5'6\"",
			Profession:   "UI/UX Designer",
			Star:         "Libra",
			Religion:     "Hindu",
			Location:     "Flat No. 12B, Greenview Apartments, T. Nagar, Chennai - 600017, Tamil Nadu",
			IsVerified:   true,
			IsPremiumNri: false,
			PhotoCount:   3,
			ImageURL:     fmt.Sprintf(portraitURL, 68),
			Attachments:  portraits(68, 3),
		},
		{
			ID:           2,
			Name:         "Rachel Thomas",
			Age:          30,
			Height:       "5'7\"",
			Profession:   "iOS Developer",
			Star:         "Aries",
			Religion:     "Christian",
			Location:     "No. 45, 2nd Cross Road, Indiranagar Stage 1, Bengaluru - 560038, Karnataka",
			IsVerified:   false,
			IsPremiumNri: true,
			PhotoCount:   1,
			ImageURL:     fmt.Sprintf(portraitURL, 44),
			Attachments:  portraits(44, 1),
		},
		{
			ID:           3,
			Name:         "Priya Reddy",
			Age:          25,
			Height:       "5'5\"",
			Profession:   "Web Developer",
			Star:         "Virgo",
			Religion:     "Hindu",
			Location:     "H.No 8-2-293/82, Road No. 36, Jubilee Hills, Hyderabad - 500033, Telangana",
			IsVerified:   true,
			IsPremiumNri: false,
			PhotoCount:   0,
			ImageURL:     fmt.Sprintf(portraitURL, 32),
			Attachments:  []string{},
		},
		{
			ID:           4,
			Name:         "Neha Patel",
			Age:          29,
			Height:       "5'8\"",
			Profession:   "Data Analyst",
			Star:         "Cancer",
			Religion:     "Hindu",
			Location:     "B-302, Sunrise Residency, Baner Pashan Link Road, Pune - 411045, Maharashtra",
			IsVerified:   false,
			IsPremiumNri: false,
			PhotoCount:   5,
			ImageURL:     fmt.Sprintf(portraitURL, 51),
			Attachments:  portraits(51, 5),
		},
		{
			ID:           5,
			Name:         "Sofia D’Souza",
			Age:          27,
			Height:       "5'6\"",
			Profession:   "AI Engineer",
			Star:         "Scorpio",
			Religion:     "Christian",
			Location:     "Apartment No. 702, Palm Grove Towers, Carter Road, Bandra West, Mumbai - 400050, Maharashtra",
			IsVerified:   true,
			IsPremiumNri: true,
			PhotoCount:   8,
			ImageURL:     fmt.Sprintf(portraitURL, 12),
			Attachments:  portraits(12, 8),
		},
	}
}
