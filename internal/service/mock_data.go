package service

import (
	"fmt"
	"slices"

	"github.com/NamitGandhi30/movie/internal/model"
)

// 外部 API 不可用时返回的占位数据。每次调用都返回新副本，调用方可随意修改。

func mockMovies() []model.Movie {
	return []model.Movie{
		{
			ID:          1,
			Title:       "Sample Movie 1",
			VoteAverage: 8.5,
			Overview:    "This is a sample movie description for when the API is unavailable.",
			ReleaseDate: "2023-01-01",
			GenreIDs:    []int{28, 12, 878},
		},
		{
			ID:          2,
			Title:       "Sample Movie 2",
			VoteAverage: 7.8,
			Overview:    "Another sample movie description for fallback purposes.",
			ReleaseDate: "2023-02-15",
			GenreIDs:    []int{18, 53},
		},
	}
}

func mockMoviesResponse() model.MoviesResponse {
	movies := mockMovies()
	return model.MoviesResponse{
		Page:         1,
		Results:      movies,
		TotalPages:   1,
		TotalResults: len(movies),
	}
}

func mockSearchResponse(query string) model.MoviesResponse {
	resp := mockMoviesResponse()
	for i := range resp.Results {
		resp.Results[i].Title = fmt.Sprintf("%s (%s)", resp.Results[i].Title, query)
	}
	return resp
}

func mockMovieDetails(id int64) model.MovieDetails {
	return model.MovieDetails{
		Movie: model.Movie{
			ID:          id,
			Title:       "Sample Movie Details",
			VoteAverage: 8.5,
			Overview:    "This is a sample movie details for when the API is unavailable.",
			ReleaseDate: "2023-01-01",
			GenreIDs:    []int{28, 12, 878},
		},
		Genres: []model.Genre{
			{ID: 28, Name: "Action"},
			{ID: 12, Name: "Adventure"},
			{ID: 878, Name: "Science Fiction"},
		},
		Runtime:   120,
		Status:    "Released",
		Tagline:   "A sample tagline",
		VoteCount: 1000,
	}
}

func mockVideosResponse(id int64) model.VideosResponse {
	return model.VideosResponse{
		ID: id,
		Results: []model.Video{{
			ID:          "mock-video-1",
			Key:         "dQw4w9WgXcQ",
			Name:        "Mock Trailer",
			Site:        "YouTube",
			Type:        "Trailer",
			Official:    true,
			PublishedAt: "2023-01-01T00:00:00.000Z",
		}},
	}
}

var genreCatalog = []model.Genre{
	{ID: 28, Name: "Action"},
	{ID: 12, Name: "Adventure"},
	{ID: 16, Name: "Animation"},
	{ID: 35, Name: "Comedy"},
	{ID: 80, Name: "Crime"},
	{ID: 99, Name: "Documentary"},
	{ID: 18, Name: "Drama"},
	{ID: 10751, Name: "Family"},
	{ID: 14, Name: "Fantasy"},
	{ID: 36, Name: "History"},
	{ID: 27, Name: "Horror"},
	{ID: 10402, Name: "Music"},
	{ID: 9648, Name: "Mystery"},
	{ID: 10749, Name: "Romance"},
	{ID: 878, Name: "Science Fiction"},
	{ID: 10770, Name: "TV Movie"},
	{ID: 53, Name: "Thriller"},
	{ID: 10752, Name: "War"},
	{ID: 37, Name: "Western"},
}

func mockGenresResponse() model.GenresResponse {
	return model.GenresResponse{Genres: slices.Clone(genreCatalog)}
}
