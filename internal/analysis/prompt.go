package analysis

import "strings"

// SystemPrompt frames the model as a clinical pathologist writing in Korean.
const SystemPrompt = `You are a highly specialized clinical pathologist with extensive experience in laboratory medicine and molecular diagnostics.
Provide extremely detailed, academic-level analysis using professional medical terminology and current scientific evidence.
Include specific molecular pathways, biochemical mechanisms, and relevant clinical research.
Response should be in Korean, but use international scientific terms where appropriate.
Maintain highest level of professional medical writing standards.`

// textPlaceholder marks where the caller's lab results are substituted.
const textPlaceholder = "{text}"

// reportTemplate requests the seven-section clinical pathology report.
const reportTemplate = `임상병리학적 전문 분석 보고서를 작성해주세요. 병리학 전문의가 참고할 수 있도록 매우 전문적인 용어와 최신 의학 지식을 포함하여 작성해주세요.

[임상병리학적 분석 보고서]

1. 검체 분석 결과
| Parameter | Measured Value | Reference Range | Deviation | Clinical Significance |
(각 수치를 SI 단위로 표기하고, 참고치 대비 편차 표시)

2. 병태생리학적 평가
A. 산염기 균형 상태
- Blood Gas Analysis
- Henderson-Hasselbalch Equation 기반 평가
- Anion Gap 분석
- Base Excess/Deficit 해석

B. 호흡기능 평가
- Oxygenation Status
- Ventilation Efficiency
- A-a Gradient 분석
- PaO2/FiO2 Ratio 평가

C. 대사성 상태 평가
- Metabolic Component Analysis
- Compensatory Mechanism 평가
- Winter's Formula 적용 결과
- Delta Gap 분석 (해당 시)

3. 분자생물학적/생화학적 해석
- 각 이상수치의 병태생리학적 기전
- Metabolic Pathway 영향 분석
- Cellular Level Impact 평가
- Potential Molecular Markers 제시

4. 감별진단학적 고찰
- Primary Differential Diagnoses
- Pathophysiological Mechanisms
- Related Biochemical Pathways
- Suggested Additional Markers

5. 임상적 중요도 평가
- Critical Values 판정
- Immediate Clinical Implications
- Risk Stratification
- Therapeutic Window 고려사항

6. 추가 검사 제안
- Confirmatory Tests
- Monitoring Parameters
- Molecular/Genetic Testing 필요성
- Time-sensitive Follow-up 고려사항

7. 학술적 참고사항
- Recent Clinical Guidelines (발행연도 포함)
- Relevant Research Papers
- Meta-analyses References
- Current Clinical Trials

분석할 검체 결과:
{text}

※ 모든 수치 해석은 최신 임상병리학 가이드라인을 기반으로 하며, 관련 문헌 참고를 포함합니다.
※ SI 단위계 사용을 원칙으로 하되, 필요시 기존 단위를 병기합니다.
※ Critical values는 즉시 보고 대상으로 별도 표시합니다.`

// BuildUserPrompt substitutes the lab results into the report template.
// The text is inserted once and never re-scanned, so braces in it are kept verbatim.
func BuildUserPrompt(text string) string {
	return strings.Replace(reportTemplate, textPlaceholder, text, 1)
}
