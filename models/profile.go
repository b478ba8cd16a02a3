package models

import (
	"errors"
	"fmt"
	"strings"
)

// ProfileType 区分同一批资料所属的页面
type ProfileType string

const (
	ProfileTypeHome  ProfileType = "HOME"
	ProfileTypeDaily ProfileType = "DAILY"
)

var ErrInvalidProfileType = errors.New("invalid profile type")

// AllProfileTypes 按播种顺序排列
var AllProfileTypes = []ProfileType{ProfileTypeHome, ProfileTypeDaily}

func ParseProfileType(s string) (ProfileType, error) {
	switch ProfileType(strings.ToUpper(strings.TrimSpace(s))) {
	case ProfileTypeHome:
		return ProfileTypeHome, nil
	case ProfileTypeDaily:
		return ProfileTypeDaily, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidProfileType, s)
}

func (t ProfileType) String() string { return string(t) }

type Profile struct {
	ID           int      `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Name         string   `gorm:"column:name" json:"name"`
	Age          int      `gorm:"column:age" json:"age"`
	Height       string   `gorm:"column:height" json:"height"`
	Profession   string   `gorm:"column:profession" json:"profession"`
	Star         string   `gorm:"column:star" json:"star"`
	Religion     string   `gorm:"column:religion" json:"religion"`
	Location     string   `gorm:"column:location" json:"location"`
	IsVerified   bool     `gorm:"column:is_verified" json:"isVerified"`
	IsPremiumNri bool     `gorm:"column:is_premium_nri" json:"isPremiumNri"`
	ImageURL     string   `gorm:"column:image_url" json:"imageUrl"`
	Attachments  []string `gorm:"column:attachments;serializer:json" json:"attachments"`
	PhotoCount   int      `gorm:"column:photo_count" json:"photoCount"`
}

func (Profile) TableName() string { return "profiles" }

// ProfileWithType 每个页面各存一份，互不影响
type ProfileWithType struct {
	ID           uint        `gorm:"column:id;primaryKey" json:"id"`
	ProfileID    int         `gorm:"column:profile_id;index:idx_profile_type,priority:1" json:"profileId"`
	ProfileName  string      `gorm:"column:profile_name" json:"profileName"`
	Type         ProfileType `gorm:"column:type;index;index:idx_profile_type,priority:2" json:"type"`
	Age          int         `gorm:"column:age" json:"age"`
	Height       string      `gorm:"column:height" json:"height"`
	Profession   string      `gorm:"column:profession" json:"profession"`
	Star         string      `gorm:"column:star" json:"star"`
	Religion     string      `gorm:"column:religion" json:"religion"`
	Location     string      `gorm:"column:location" json:"location"`
	IsVerified   bool        `gorm:"column:is_verified" json:"isVerified"`
	IsPremiumNri bool        `gorm:"column:is_premium_nri" json:"isPremiumNri"`
	ImageURL     string      `gorm:"column:image_url" json:"imageUrl"`
	Attachments  []string    `gorm:"column:attachments;serializer:json" json:"attachments"`
	PhotoCount   int         `gorm:"column:photo_count" json:"photoCount"`
}

func (ProfileWithType) TableName() string { return "profile_with_type" }

func (p ProfileWithType) ToProfile() Profile {
	return Profile{
		ID:           p.ProfileID,
		Name:         p.ProfileName,
		Age:          p.Age,
		Height:       p.Height,
		Profession:   p.Profession,
		Star:         p.Star,
		Religion:     p.Religion,
		Location:     p.Location,
		IsVerified:   p.IsVerified,
		IsPremiumNri: p.IsPremiumNri,
		ImageURL:     p.ImageURL,
		Attachments:  p.Attachments,
		PhotoCount:   p.PhotoCount,
	}
}

// FromProfile 行 ID 留空，由数据库分配
func FromProfile(p Profile, t ProfileType) ProfileWithType {
	return ProfileWithType{
		ProfileID:    p.ID,
		ProfileName:  p.Name,
		Type:         t,
		Age:          p.Age,
		Height:       p.Height,
		Profession:   p.Profession,
		Star:         p.Star,
		Religion:     p.Religion,
		Location:     p.Location,
		IsVerified:   p.IsVerified,
		IsPremiumNri: p.IsPremiumNri,
		ImageURL:     p.ImageURL,
		Attachments:  p.Attachments,
		PhotoCount:   p.PhotoCount,
	}
}
