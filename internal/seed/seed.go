// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package seed loads the sample workshops and certificates used in
// development and demos.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"codeberg.org/acmclub/certificates/internal/models"
	"codeberg.org/acmclub/certificates/internal/services/certificate"
	"codeberg.org/acmclub/certificates/internal/services/workshop"
)

// Result counts what Run created.
type Result struct {
	Workshops    int
	Certificates int
}

func ptr(s string) *string { return &s }

var sampleWorkshops = []workshop.CreateInput{
	{
		Title:       "Advanced React Patterns",
		Date:        "October 24, 2023",
		Description: ptr("Learn advanced React patterns including hooks, context, and performance optimization"),
		Level:       models.LevelAdvanced,
		Instructor:  "Dr. Emily Chen",
		Image:       ptr("/assets/react.jpg"),
	},
	{
		Title:       "Python for Data Science",
		Date:        "November 10, 2023",
		Description: ptr("Master Python with Pandas, NumPy, and data visualization"),
		Level:       models.LevelIntermediate,
		Instructor:  "Prof. Michael Ross",
		Image:       ptr("/assets/python.jpg"),
	},
	{
		Title:       "Web Development Fundamentals",
		Date:        "November 25, 2023",
		Description: ptr("Learn HTML, CSS, and JavaScript fundamentals"),
		Level:       models.LevelBeginner,
		Instructor:  "Sarah Johnson",
		Image:       ptr("/assets/web.jpg"),
	},
}

var sampleCertificates = []certificate.CreateInput{
	{
		Code:          "ACM-2024-REACT001",
		RecipientName: "Alex Johnson",
		Email:         "alex@example.com",
		WorkshopName:  "Advanced React Patterns",
		IssueDate:     "October 24, 2023",
		Skills:        []string{"React Hooks", "Context API", "Performance Optimization"},
		Instructor:    "Dr. Emily Chen",
	},
	{
		Code:          "ACM-2024-PYDS001",
		RecipientName: "Sarah Smith",
		Email:         "sarah@example.com",
		WorkshopName:  "Python for Data Science",
		IssueDate:     "November 10, 2023",
		Skills:        []string{"Pandas", "NumPy", "Matplotlib"},
		Instructor:    "Prof. Michael Ross",
	},
}

// Run creates the sample workshops when there are none and the sample
// certificates when there are none. Certificates are linked to the sample
// workshop of the same name if it was created in this run.
func Run(ctx context.Context, workshops *workshop.Service, certs *certificate.Service) (Result, error) {
	var res Result

	stats, err := certs.Stats(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to count existing data: %w", err)
	}

	byTitle := make(map[string]string)
	if stats.TotalWorkshops == 0 {
		for _, in := range sampleWorkshops {
			w, err := workshops.Create(ctx, in)
			if err != nil {
				return res, fmt.Errorf("failed to seed workshop %q: %w", in.Title, err)
			}
			byTitle[w.Title] = w.ID
			res.Workshops++
		}
	}

	if stats.TotalCertificates == 0 {
		for _, in := range sampleCertificates {
			in.WorkshopID = byTitle[in.WorkshopName]
			if _, err := certs.Create(ctx, in); err != nil {
				return res, fmt.Errorf("failed to seed certificate %s: %w", in.Code, err)
			}
			res.Certificates++
		}
	}

	slog.Info("seed_complete", "workshops", res.Workshops, "certificates", res.Certificates)
	return res, nil
}
