package scrape

const recordDetailQuery = `query recordDetail($id: Int!) {
  recordDetail(id: $id) {
    id
    title
    short_title
    product_type
    synopsis
    language
    sector_name
    sub_sector
    journal
    journal_volume
    journal_issue
    year_of_publication
    publication_type
    publication_url
    report_url
    evidence_programme
    context
    research_questions
    main_finding
    headline_findings
    evaluation_design
    authors {
      author
      institutions {
        author_affiliation
        department
        author_country
      }
    }
    continent {
      continent
      countries {
        country
        income_level
        fcv_status
      }
    }
    project_name {
      project_name
      implementation_agencies {
        implementation_agency
      }
      funding_agencies {
        agency_name
      }
    }
    abstract
    open_access
    doi
    equity_focus
    keywords
    evaluation_method
    mixed_methods
    unit_of_observation
    methodology
    region
    study_status
    primary_dac_code
    un_sustainable_development_goal
    pre_registration
    interventions
    outcome
  }
}`
