package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math/rand/v2"
	"time"

	"github.com/civicconnect/civic-services/internal/auth"
	"github.com/civicconnect/civic-services/internal/models"
	"github.com/civicconnect/civic-services/internal/storage"
	"github.com/civicconnect/civic-services/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	sampleComplaints = 25
	samplePassword   = "password123"
	coordinateJitter = 0.01
	maxDaysAgo       = 30
)

type citizen struct {
	username, email, firstName, lastName string
}

var citizens = []citizen{
	{"mumbai_citizen_1", "citizen1@example.com", "Rajesh", "Patel"},
	{"mumbai_citizen_2", "citizen2@example.com", "Priya", "Sharma"},
	{"mumbai_citizen_3", "citizen3@example.com", "Amit", "Kumar"},
	{"mumbai_citizen_4", "citizen4@example.com", "Neha", "Singh"},
	{"mumbai_citizen_5", "citizen5@example.com", "Suresh", "Verma"},
	{"mumbai_citizen_6", "citizen6@example.com", "Anjali", "Gupta"},
	{"mumbai_citizen_7", "citizen7@example.com", "Vikram", "Joshi"},
	{"mumbai_citizen_8", "citizen8@example.com", "Meera", "Reddy"},
	{"mumbai_citizen_9", "citizen9@example.com", "Arun", "Malhotra"},
	{"mumbai_citizen_10", "citizen10@example.com", "Kavita", "Iyer"},
}

type point struct{ lat, lng float64 }

// Neighbourhood centres the complaints are scattered around
var locations = []point{
	{19.0760, 72.8777}, // City centre
	{19.1197, 72.8464}, // Andheri
	{19.0596, 72.8295}, // Bandra
	{19.0810, 72.8410}, // Santacruz
	{19.1075, 72.8263}, // Juhu
	{18.9067, 72.8147}, // Colaba
	{19.0176, 72.8162}, // Worli
	{19.0178, 72.8478}, // Dadar
	{19.0390, 72.8400}, // Mahim
	{18.9986, 72.8424}, // Parel
	{18.9950, 72.8570}, // Sewri
	{19.0170, 72.8650}, // Wadala
	{19.0430, 72.8620}, // Sion
	{19.0726, 72.8845}, // Kurla
	{19.0860, 72.9080}, // Ghatkopar
	{19.1110, 72.9280}, // Vikhroli
	{19.1280, 72.9290}, // Kanjurmarg
	{19.1430, 72.9380}, // Bhandup
	{19.1726, 72.9564}, // Mulund
	{19.2183, 72.9781}, // Thane
	{19.0330, 73.0297}, // Navi Mumbai
	{19.0522, 72.9005}, // Chembur
	{19.0550, 72.9150}, // Govandi
	{19.0480, 72.9320}, // Mankhurd
}

var descriptions = map[models.ComplaintType][]string{
	models.ComplaintPothole: {
		"Large pothole on main road causing traffic",
		"Deep pothole near bus stop",
		"Multiple potholes on residential street",
		"Pothole filled with water after rain",
		"Dangerous pothole on highway",
	},
	models.ComplaintWaterLeak: {
		"Water pipeline burst on street",
		"Leaking water main causing flooding",
		"Broken water hydrant",
		"Water leak from underground pipe",
		"Sewage water overflow",
	},
	models.ComplaintBrokenSignal: {
		"Traffic signal not working",
		"Faulty pedestrian crossing signal",
		"Broken traffic light at intersection",
		"Signal timing issue causing congestion",
		"Non-functional traffic signal",
	},
	models.ComplaintGarbage: {
		"Garbage not collected for days",
		"Overflowing garbage bins",
		"Illegal garbage dumping",
		"Stray animals near garbage area",
		"Unhygienic garbage disposal",
	},
	models.ComplaintOther: {
		"Broken street light",
		"Damaged road divider",
		"Missing manhole cover",
		"Overgrown trees blocking road",
		"Damaged public bench",
	},
}

var complaintTypes = []models.ComplaintType{
	models.ComplaintPothole,
	models.ComplaintWaterLeak,
	models.ComplaintBrokenSignal,
	models.ComplaintGarbage,
	models.ComplaintOther,
}

var titleFormats = map[models.ComplaintType]string{
	models.ComplaintPothole:      "Pothole Issue at %s's Area",
	models.ComplaintWaterLeak:    "Water Leak Problem in %s's Neighborhood",
	models.ComplaintBrokenSignal: "Traffic Signal Issue near %s's Location",
	models.ComplaintGarbage:      "Garbage Collection Problem in %s's Area",
	models.ComplaintOther:        "Infrastructure Issue in %s's Community",
}

// weightedStatus picks PENDING half the time, IN_PROGRESS 30% and RESOLVED 20%
func weightedStatus(r *rand.Rand) models.ComplaintStatus {
	switch p := r.Float64(); {
	case p < 0.5:
		return models.ComplaintPending
	case p < 0.8:
		return models.ComplaintInProgress
	default:
		return models.ComplaintResolved
	}
}

// sampleImage encodes a 100x100 solid JPEG
func sampleImage() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: 73, G: 109, B: 137, A: 255}}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("failed to encode sample image: %w", err)
	}
	return buf.Bytes(), nil
}

// seeder creates the sample citizens and their complaints
type seeder struct {
	store   store.Store
	media   storage.StorageInterface
	manager *auth.Manager
	rand    *rand.Rand
	now     func() time.Time
}

func (s *seeder) ensureCitizens(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0, len(citizens))
	for _, c := range citizens {
		user, err := s.store.GetUserByUsername(ctx, c.username)
		if errors.Is(err, store.ErrNotFound) {
			user, err = s.manager.Register(ctx, auth.Registration{
				Username:  c.username,
				Email:     c.email,
				Password:  samplePassword,
				FirstName: c.firstName,
				LastName:  c.lastName,
			})
			if err == nil {
				fmt.Printf("👤 Created user: %s\n", user.Username)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to prepare user %s: %w", c.username, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *seeder) randomComplaint(user models.User) models.Complaint {
	loc := locations[s.rand.IntN(len(locations))]
	complaintType := complaintTypes[s.rand.IntN(len(complaintTypes))]
	options := descriptions[complaintType]
	daysAgo := s.rand.IntN(maxDaysAgo + 1)

	return models.Complaint{
		UserID:        user.ID,
		Title:         fmt.Sprintf(titleFormats[complaintType], user.FirstName),
		Description:   options[s.rand.IntN(len(options))],
		ComplaintType: complaintType,
		Latitude:      loc.lat + (s.rand.Float64()*2-1)*coordinateJitter,
		Longitude:     loc.lng + (s.rand.Float64()*2-1)*coordinateJitter,
		Status:        weightedStatus(s.rand),
		CreatedAt:     s.now().AddDate(0, 0, -daysAgo).UTC(),
	}
}

// seed creates count complaints from random citizens and returns them
func (s *seeder) seed(ctx context.Context, count int) ([]models.Complaint, error) {
	users, err := s.ensureCitizens(ctx)
	if err != nil {
		return nil, err
	}
	photo, err := sampleImage()
	if err != nil {
		return nil, err
	}

	created := make([]models.Complaint, 0, count)
	for i := 0; i < count; i++ {
		user := users[s.rand.IntN(len(users))]
		complaint, err := s.store.CreateComplaint(ctx, s.randomComplaint(user))
		if err != nil {
			return created, fmt.Errorf("failed to create complaint %d: %w", i+1, err)
		}

		name := storage.ImageName("complaints", complaint.ID, ".jpg")
		if err := s.media.Store(ctx, name, photo); err != nil {
			logrus.Warnf("Failed to store image for complaint %d: %v", complaint.ID, err)
		} else if err := s.store.SetComplaintImage(ctx, complaint.ID, name); err != nil {
			logrus.Warnf("Failed to attach image to complaint %d: %v", complaint.ID, err)
		} else {
			complaint.Image = name
		}

		created = append(created, complaint)
		fmt.Printf("📝 Created complaint %d: %s by %s at (%.4f, %.4f)\n",
			len(created), complaint.ComplaintType, user.Username, complaint.Latitude, complaint.Longitude)
	}
	return created, nil
}
