package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/greenplot/ecdash/internal/analysis"
)

// PageConfig controls what the dashboard page shows.
type PageConfig struct {
	Title string
	// SelectedGroup narrows the environment section to one group ("" = all).
	SelectedGroup string
	// ChartBase prefixes chart image URLs; the static report uses relative
	// paths, the server uses /charts/.
	ChartBase string
	// ExportBase prefixes download links; empty hides the export section.
	ExportBase string
	// TimeSeries lists the environment time-series images to embed. The
	// server passes one entry for the selected group; the static report
	// passes one per group.
	TimeSeries []Image
	// Warnings from the locator scan, shown under the overview.
	Warnings []string
}

// Image is a chart image slot with its source URL.
type Image struct {
	Group string
	Src   string
}

type pageData struct {
	PageConfig
	Summary  *analysis.Summary
	Groups   []string
	BestNote string
}

var funcMap = template.FuncMap{
	"mean": func(s analysis.NumSummary) string {
		if !s.Valid() {
			return "N/A"
		}
		return fmt.Sprintf("%.2f", s.Mean)
	},
	"mean1": func(s analysis.NumSummary) string {
		if !s.Valid() {
			return "N/A"
		}
		return fmt.Sprintf("%.1f", s.Mean)
	},
	"target": func(has bool, v float64) string {
		if !has {
			return "-"
		}
		return fmt.Sprintf("%.1f", v)
	},
	"f2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}

var pageTmpl = template.Must(template.New("page").Funcs(funcMap).Parse(pageHTML))

// Page renders the full dashboard HTML from one aggregation pass. It is
// pure: all data comes in through the summary and config.
func Page(cfg PageConfig, sum *analysis.Summary, groups []string) ([]byte, error) {
	data := pageData{PageConfig: cfg, Summary: sum, Groups: groups}
	if sum.Best != nil {
		data.BestNote = fmt.Sprintf("%.2f g (EC %.1f, %s)", sum.Best.MeanWeight, sum.Best.TargetEC, sum.Best.Group)
	} else {
		data.BestNote = "N/A"
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

const pageHTML = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@import url('https://fonts.googleapis.com/css2?family=Noto+Sans+KR&display=swap');
body { font-family: 'Noto Sans KR', 'Malgun Gothic', sans-serif; margin: 0; background: #f7f9f7; color: #222; }
header { background: #24502c; color: #fff; padding: 16px 28px; }
main { max-width: 1100px; margin: 0 auto; padding: 20px 28px; }
nav.tabs a { display: inline-block; padding: 8px 14px; margin-right: 4px; border-radius: 6px 6px 0 0; background: #dfe8df; color: #24502c; text-decoration: none; }
section { background: #fff; border: 1px solid #dcdcdc; border-radius: 0 6px 6px 6px; padding: 18px; margin-bottom: 28px; }
table { border-collapse: collapse; margin: 12px 0; }
th, td { border: 1px solid #ccc; padding: 6px 12px; text-align: right; }
th { background: #eef3ee; }
td.name, th.name { text-align: left; }
.cards { display: flex; gap: 14px; flex-wrap: wrap; margin: 12px 0; }
.card { flex: 1 1 180px; background: #eef3ee; border-radius: 6px; padding: 12px 16px; }
.card .value { font-size: 1.5em; font-weight: bold; }
.swatch { display: inline-block; width: 12px; height: 12px; border-radius: 2px; margin-right: 6px; }
.charts img { max-width: 48%; margin: 4px 1%; border: 1px solid #eee; }
.charts img.wide { max-width: 98%; }
.groups a { margin-right: 8px; }
.groups a.active { font-weight: bold; }
.warn { color: #8a6d1a; font-size: 0.9em; }
</style>
</head>
<body>
<header><h1>🌱 {{.Title}}</h1></header>
<main>

<nav class="tabs">
<a href="#overview">📖 실험 개요</a>
<a href="#environment">🌡️ 환경 데이터</a>
<a href="#growth">📊 생육 결과</a>
</nav>

<section id="overview">
<h2>실험 개요</h2>
<p>극지 환경에 적응한 식물의 생육 특성을 분석하여 <strong>최적 EC(전기전도도) 농도 조건</strong>을 도출한다.</p>
<div class="cards">
<div class="card">총 개체수<div class="value">{{.Summary.TotalSpecimens}}</div></div>
<div class="card">평균 온도<div class="value">{{mean1 .Summary.GrandMeanTemperature}} ℃</div></div>
<div class="card">평균 습도<div class="value">{{mean1 .Summary.GrandMeanHumidity}} %</div></div>
<div class="card">🥇 최적 EC 평균 생중량<div class="value">{{.BestNote}}</div></div>
</div>
<table>
<tr><th class="name">학교명</th><th>EC 목표</th><th>개체수</th><th class="name">색상</th></tr>
{{range .Summary.Overview}}
<tr>
<td class="name">{{.Group}}</td>
<td>{{target .HasTarget .TargetEC}}</td>
<td>{{.Specimens}}</td>
<td class="name"><span class="swatch" style="background:{{.Color}}"></span>{{.Color}}</td>
</tr>
{{end}}
</table>
{{range .Warnings}}<p class="warn">⚠ {{.}}</p>{{end}}
</section>

<section id="environment">
<h2>학교별 환경 평균 비교</h2>
<table>
<tr><th class="name">학교</th><th>온도</th><th>습도</th><th>pH</th><th>실측 EC</th><th>목표 EC</th></tr>
{{range .Summary.Env}}
<tr>
<td class="name">{{.Group}}</td>
<td>{{mean .Temperature}}</td>
<td>{{mean .Humidity}}</td>
<td>{{mean .PH}}</td>
<td>{{mean .EC}}</td>
<td>{{target .HasTarget .TargetEC}}</td>
</tr>
{{end}}
</table>
<div class="charts">
<img src="{{.ChartBase}}env_temperature.png" alt="평균 온도">
<img src="{{.ChartBase}}env_humidity.png" alt="평균 습도">
<img src="{{.ChartBase}}env_ph.png" alt="평균 pH">
<img src="{{.ChartBase}}env_ec.png" alt="목표 EC vs 실측 EC">
</div>
<p class="groups">🏫 학교 선택:
<a href="?" {{if not .SelectedGroup}}class="active"{{end}}>전체</a>
{{$sel := .SelectedGroup}}
{{range .Groups}}<a href="?group={{.}}" {{if eq . $sel}}class="active"{{end}}>{{.}}</a>{{end}}
</p>
{{range .TimeSeries}}
<div class="charts"><img class="wide" src="{{.Src}}" alt="{{.Group}} 환경 시계열"></div>
{{end}}
{{if .ExportBase}}
<p>📥 환경 데이터 원본:
{{$base := .ExportBase}}
{{range .Groups}}<a href="{{$base}}env/{{.}}.csv">{{.}} CSV</a> {{end}}
</p>
{{end}}
</section>

<section id="growth">
<h2>EC별 생육 결과 비교</h2>
<table>
<tr><th class="name">학교</th><th>EC</th><th>평균 생중량</th><th>평균 잎 수</th><th>평균 지상부 길이</th><th>개체수</th></tr>
{{range .Summary.Growth}}
<tr>
<td class="name">{{.Group}}</td>
<td>{{target .HasTarget .TargetEC}}</td>
<td>{{mean .Weight}}</td>
<td>{{mean .Leaves}}</td>
<td>{{mean .Shoot}}</td>
<td>{{.Specimens}}</td>
</tr>
{{end}}
</table>
<div class="charts">
<img src="{{.ChartBase}}growth_weight.png" alt="평균 생중량">
<img src="{{.ChartBase}}growth_leaves.png" alt="평균 잎 수">
<img src="{{.ChartBase}}growth_shoot.png" alt="평균 지상부 길이">
<img src="{{.ChartBase}}growth_count.png" alt="개체수">
<img class="wide" src="{{.ChartBase}}weight_box.png" alt="생중량 분포">
</div>
{{if .Summary.Weights}}
<h3>생중량 분포 (사분위수)</h3>
<table>
<tr><th class="name">학교</th><th>개체수</th><th>최소</th><th>Q1</th><th>중앙값</th><th>Q3</th><th>최대</th></tr>
{{range .Summary.Weights}}
<tr>
<td class="name">{{.Group}}</td>
<td>{{.Count}}</td>
<td>{{f2 .Min}}</td>
<td>{{f2 .Q1}}</td>
<td>{{f2 .Median}}</td>
<td>{{f2 .Q3}}</td>
<td>{{f2 .Max}}</td>
</tr>
{{end}}
</table>
{{end}}
<div class="charts">
<img src="{{.ChartBase}}corr_leaves.png" alt="잎 수 상관">
<img src="{{.ChartBase}}corr_shoot.png" alt="지상부 길이 상관">
</div>
{{if .ExportBase}}
<p>📥 <a href="{{.ExportBase}}growth.xlsx">전체 생육 데이터 XLSX 다운로드</a></p>
{{end}}
</section>

</main>
</body>
</html>
`
