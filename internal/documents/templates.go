package documents

const adverseActionTemplate = `NOTICE OF ADVERSE ACTION

Date: {{.DecisionDate}}

To: {{.ApplicantName}}

Re: Loan Application {{.ApplicationID}} dated {{.ApplicationDate}}

Dear {{.ApplicantName}},

We regret to inform you that your application for credit has been denied.
This decision was based in whole or in part on information obtained from
your credit report, information you provided in your application, and our
internal credit policies.

CREDIT SCORE DISCLOSURE:
Your credit score: {{.CreditScore}} (range {{.ScoreRangeLow}}-{{.ScoreRangeHigh}})

Key factors that adversely affected your credit score:
{{range .Factors}}- {{.}}
{{end}}
You have the right to obtain a free copy of your credit report within 60
days from the consumer reporting agency. You also have the right to
dispute the accuracy or completeness of any information in your credit
report.

NOTICE OF RIGHTS UNDER THE EQUAL CREDIT OPPORTUNITY ACT:
The federal Equal Credit Opportunity Act prohibits creditors from
discriminating against credit applicants on the basis of race, color,
religion, national origin, sex, marital status, or age. If you believe
you have been discriminated against, you may contact the Federal Trade
Commission, Equal Credit Opportunity, Washington, DC 20580.

Sincerely,

Credit Department
`

const approvalTemplate = `LOAN {{if .Conditional}}CONDITIONAL {{end}}APPROVAL

Date: {{.DecisionDate}}

To: {{.ApplicantName}}

Re: Loan Application {{.ApplicationID}}

Dear {{.ApplicantName}},

We are pleased to inform you that your application for credit has been
{{if .Conditional}}conditionally approved, subject to verification of the
information provided in your application{{else}}approved{{end}}.

LOAN TERMS:
  Amount:        ${{printf "%.2f" .LoanAmount}}
  Interest rate: {{printf "%.2f" .InterestRate}}%
  Term:          {{.TermDays}} days

Your credit score at decision time: {{.CreditScore}}

This offer is valid for 30 days from the date of this letter.

Sincerely,

Credit Department
`

const modelDocTemplate = `MODEL DOCUMENTATION

Model type:      {{.ModelType}}
Training date:   {{.TrainingDate}}
Training samples: {{.TrainingSamples}}

PERFORMANCE:
{{.PerformanceMetrics}}

FEATURES ({{len .FeatureList}}):
{{join .FeatureList ", "}}

This model is subject to periodic revalidation. Scores produced by this
model map default probability onto the 300-850 range; decisions derived
from them pass the compliance framework before release.
`
