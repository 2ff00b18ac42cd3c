package remote

import "github.com/Arwen-Digital/SermonSpark-sub003/internal/offline/models"

// SeriesFromModel converts a local row to its wire form. Ownership is
// carried by the client's credentials, not the payload.
func SeriesFromModel(s *models.Series) *SeriesRecord {
	return &SeriesRecord{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		ImageURL:    s.ImageURL,
		Tags:        s.Tags,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		DeletedAt:   s.DeletedAt,
		Version:     s.Version,
	}
}

// ToModel converts a pulled series record to a local row owned by userID.
func (r *SeriesRecord) ToModel(userID string) *models.Series {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Series{
		ID:          r.ID,
		UserID:      userID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		ImageURL:    r.ImageURL,
		Tags:        tags,
		Status:      models.SeriesStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		DeletedAt:   r.DeletedAt,
		Op:          models.OpUpsert,
		Version:     r.Version,
	}
}

// SermonFromModel converts a local row to its wire form.
func SermonFromModel(s *models.Sermon) *SermonRecord {
	return &SermonRecord{
		ID:         s.ID,
		Title:      s.Title,
		Content:    s.Content,
		Outline:    s.Outline,
		Scripture:  s.Scripture,
		Tags:       s.Tags,
		Status:     string(s.Status),
		Visibility: string(s.Visibility),
		Date:       s.Date,
		Notes:      s.Notes,
		SeriesID:   s.SeriesID,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		DeletedAt:  s.DeletedAt,
		Version:    s.Version,
	}
}

// ToModel converts a pulled sermon record to a local row owned by userID.
func (r *SermonRecord) ToModel(userID string) *models.Sermon {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Sermon{
		ID:         r.ID,
		UserID:     userID,
		Title:      r.Title,
		Content:    r.Content,
		Outline:    r.Outline,
		Scripture:  r.Scripture,
		Tags:       tags,
		Status:     models.SermonStatus(r.Status),
		Visibility: models.Visibility(r.Visibility),
		Date:       r.Date,
		Notes:      r.Notes,
		SeriesID:   r.SeriesID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		DeletedAt:  r.DeletedAt,
		Op:         models.OpUpsert,
		Version:    r.Version,
	}
}
