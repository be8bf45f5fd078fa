package roster

import (
	"time"

	"github.com/hitoshi/mapchats/internal/model"
)

// seedUsers はデモ用のシードユーザー6名を生成する。
// ニューヨーク市内に分散配置された固定プロフィール。
func seedUsers() []*model.User {
	now := time.Now()

	mk := func(id, username, email, avatarURL, bio string, age int, gender string,
		lat, lng float64, premium bool, createdAt string) *model.User {
		created, _ := time.Parse(time.RFC3339, createdAt)
		return &model.User{
			ID:        id,
			Username:  username,
			Email:     email,
			AvatarURL: avatarURL,
			Bio:       bio,
			Age:       age,
			Gender:    gender,
			Location:  &model.Coordinates{Latitude: lat, Longitude: lng},
			IsOnline:  true,
			IsPremium: premium,
			LastSeen:  now,
			CreatedAt: created,
			UpdatedAt: created,
		}
	}

	return []*model.User{
		// Times Square周辺
		mk("1", "alex_nyc", "alex@example.com",
			"https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=100&h=100&fit=crop&crop=face",
			"Love exploring the city and meeting new people! ✨",
			28, "male", 40.7589, -73.9851, false, "2023-06-15T10:30:00Z"),
		// SoHo周辺
		mk("2", "sarah_creative", "sarah@example.com",
			"https://images.unsplash.com/photo-1494790108755-2616b612b1c8?w=100&h=100&fit=crop&crop=face",
			"Artist and coffee enthusiast. Always up for deep conversations ☕",
			25, "female", 40.7505, -73.9934, true, "2023-08-22T14:20:00Z"),
		// Financial District
		mk("3", "mike_tech", "mike@example.com",
			"https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop&crop=face",
			"Software developer by day, foodie by night 🍕",
			32, "male", 40.7282, -74.0776, false, "2023-04-10T09:15:00Z"),
		// Central Park周辺
		mk("4", "emma_wanderer", "emma@example.com",
			"https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=100&h=100&fit=crop&crop=face",
			"Travel blogger exploring NYC neighborhoods 🗽",
			29, "female", 40.7614, -73.9776, true, "2023-07-03T16:45:00Z"),
		// Greenwich Village
		mk("5", "david_music", "david@example.com",
			"https://images.unsplash.com/photo-1500648767791-00dcc994a43e?w=100&h=100&fit=crop&crop=face",
			"Musician and producer. Let's jam! 🎵",
			26, "male", 40.7282, -73.9942, false, "2023-05-18T11:30:00Z"),
		// East Village
		mk("6", "luna_fitness", "luna@example.com",
			"https://images.unsplash.com/photo-1487412720507-e7ab37603c6f?w=100&h=100&fit=crop&crop=face",
			"Fitness instructor & wellness coach. Stay healthy! 💪",
			24, "female", 40.7505, -73.9731, true, "2023-09-05T08:20:00Z"),
	}
}
