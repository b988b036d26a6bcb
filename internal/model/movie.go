package model

// Movie 电影列表项（TMDB 列表接口结构）
type Movie struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	GenreIDs     []int   `json:"genre_ids"`
}

// MovieDetails 电影详情
type MovieDetails struct {
	Movie
	Genres    []Genre `json:"genres"`
	Runtime   int     `json:"runtime"`
	Status    string  `json:"status"`
	Tagline   string  `json:"tagline"`
	VoteCount int     `json:"vote_count"`
}

// Genre 类型
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenresResponse 类型列表
type GenresResponse struct {
	Genres []Genre `json:"genres"`
}

// MoviesResponse 分页电影列表
type MoviesResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Video 预告片/视频
type Video struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}

// VideosResponse 视频列表
type VideosResponse struct {
	ID      int64   `json:"id,omitempty"`
	Results []Video `json:"results"`
}

// DefaultSort 默认排序
const DefaultSort = "popularity.desc"

// SortOptions 按类型浏览时允许的排序方式
var SortOptions = []string{
	"popularity.desc",
	"vote_average.desc",
	"release_date.desc",
	"release_date.asc",
	"original_title.asc",
	"original_title.desc",
}

// NormalizeSort 非法排序值回退到默认排序
func NormalizeSort(sortBy string) string {
	for _, opt := range SortOptions {
		if opt == sortBy {
			return sortBy
		}
	}
	return DefaultSort
}
